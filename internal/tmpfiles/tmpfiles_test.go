package tmpfiles

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	dir, err := New(filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)

	path, err := dir.Write("сено.xlsx", func(w io.Writer) error {
		_, err := w.Write([]byte("workbook bytes"))
		return err
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir.Path(), "сено.xlsx"), path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "workbook bytes", string(contents))
}

func TestWriteFailureLeavesNoFile(t *testing.T) {
	dir, err := New(t.TempDir())
	require.NoError(t, err)

	boom := errors.New("encode failed")
	_, err = dir.Write("broken.xlsx", func(io.Writer) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir.Path())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCleanup(t *testing.T) {
	dir, err := New(t.TempDir())
	require.NoError(t, err)

	old := filepath.Join(dir.Path(), "old.xlsx")
	fresh := filepath.Join(dir.Path(), "fresh.xlsx")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	require.NoError(t, dir.Cleanup(time.Hour))

	_, err = os.Stat(old)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	require.NoError(t, err)
}

func TestScheduleCleanup(t *testing.T) {
	dir, err := New(t.TempDir())
	require.NoError(t, err)

	c, err := dir.ScheduleCleanup("@every 1h", time.Hour)
	require.NoError(t, err)
	c.Stop()
}
