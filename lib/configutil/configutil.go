// Package configutil loads json5 configuration with optional local
// overrides, so a checked-in donorbot.json5 carries defaults while
// donorbot.local.json5 holds the bot token and stays out of version
// control.
package configutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// donorbot.json5 -> donorbot.local.json5
func localPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// ReadConfig reads <name>, then merges the sibling .local file over it
// with override fields winning. Either file may be absent; when both
// are, the error is os.ErrNotExist.
func ReadConfig[T any](name string) (T, error) {
	var out T

	base, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(base) > 0 {
		if err := json5.Unmarshal(base, &out); err != nil {
			return out, err
		}
	}

	overridePath := localPath(name)
	override, err := os.ReadFile(overridePath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(override) > 0 {
		var local T
		if err := json5.Unmarshal(override, &local); err != nil {
			return out, err
		}
		if err := mergo.Merge(&out, local, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("applied local config overrides", "path", overridePath)
	}

	if len(base) == 0 && len(override) == 0 {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks from the working directory up to the
// filesystem root and reads the first <name> it finds. Tests started
// from a package directory pick up the repo-level telemetry.json5
// this way.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}
