// Package tmpfiles owns the directory generated reports are written to
// before the bot uploads them, and keeps it from filling up.
package tmpfiles

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"donorbot-backend/lib/timezone"

	"github.com/robfig/cron/v3"
)

type Dir struct {
	path string
}

func New(path string) (Dir, error) {
	err := os.MkdirAll(path, 0o755)
	if err != nil {
		return Dir{}, fmt.Errorf("create report dir: %w", err)
	}
	return Dir{path: path}, nil
}

func (d Dir) Path() string {
	return d.path
}

// Write streams a report into the directory, going through a temp file
// and a rename so a crashed write never leaves a half-built document
// behind under the final name.
func (d Dir) Write(name string, write func(w io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(d.path, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("flush report file: %w", err)
	}

	final := filepath.Join(d.path, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("finalize report file: %w", err)
	}
	return final, nil
}

// Cleanup removes every file in the directory older than maxAge. A file
// that fails to go does not stop the sweep.
func (d Dir) Cleanup(maxAge time.Duration) error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("read report dir: %w", err)
	}

	cutoff := timezone.Now().Add(-maxAge)
	var errList []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			errList = append(errList, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, entry.Name())); err != nil {
			errList = append(errList, err)
		}
	}

	if len(errList) > 0 {
		return fmt.Errorf("cleanup report dir: %w", errors.Join(errList...))
	}
	return nil
}

// ScheduleCleanup runs Cleanup on a cron spec (e.g. "@every 15m") until
// the returned cron is stopped.
func (d Dir) ScheduleCleanup(spec string, maxAge time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(timezone.Location))
	_, err := c.AddFunc(spec, func() {
		if err := d.Cleanup(maxAge); err != nil {
			slog.Error("report dir cleanup failed", "dir", d.path, "err", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
