// Package dirs resolves the directory conventions from spec.md §6: logs,
// data, backup, cache and config, each overridable by an environment
// variable, falling back to a path under a base directory otherwise.
package dirs

import (
	"os"
	"path/filepath"
)

// Dirs holds the five resolved directory paths.
type Dirs struct {
	Log    string
	Data   string
	Backup string
	Cache  string
	Config string
}

// Resolve computes Dirs rooted at base, honoring UCTI_* overrides.
func Resolve(base string) Dirs {
	return Dirs{
		Log:    envOrJoin("UCTI_LOG_DIR", base, "logs"),
		Data:   envOrJoin("UCTI_DATA_DIR", base, "data"),
		Backup: envOrJoin("UCTI_BACKUP_DIR", base, "backup"),
		Cache:  envOrJoin("UCTI_CACHE_DIR", base, "cache"),
		Config: envOrJoin("UCTI_CONFIG_DIR", base, "config"),
	}
}

func envOrJoin(env, base, leaf string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return filepath.Join(base, leaf)
}

// EnsureAll creates every directory in d that does not yet exist.
func (d Dirs) EnsureAll() error {
	for _, path := range []string{d.Log, d.Data, d.Backup, d.Cache, d.Config} {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// ConfigFile returns the canonical path to config.toml under d.Config.
func (d Dirs) ConfigFile() string {
	return filepath.Join(d.Config, "config.toml")
}
