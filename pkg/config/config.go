// Package config loads ncfiledb's daemon/datastore configuration from a
// YAML file, following the corpus convention of gopkg.in/yaml.v3 for
// on-disk configuration (the teacher repo uses it for its own
// cluster/hardware config files).
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ncerrors "github.com/cesnet/ncfiledb/pkg/errors"
)

// DatastoreConfig configures a single file-backed datastore instance
// (SPEC_FULL.md §9 "Configuration loading").
type DatastoreConfig struct {
	// Path is the absolute path to the backing XML file (SPEC_FULL.md §6).
	Path string `yaml:"path"`
	// FileMode is the permission mask used when the backing file must be
	// created (SPEC_FULL.md §4.1 C1 step 1).
	FileMode os.FileMode `yaml:"file_mode"`
	// LockDir is the directory the named inter-process mutex's lock file
	// is created under (SPEC_FULL.md §4.3). Defaults to os.TempDir().
	LockDir string `yaml:"lock_dir"`
	// LockTimeout bounds how long each datastore operation waits for the
	// OS-level mutex before giving up; zero means wait indefinitely,
	// matching the original's unbounded semaphore wait (SPEC_FULL.md §5).
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// DefaultDatastoreConfig returns the conventional defaults.
func DefaultDatastoreConfig() DatastoreConfig {
	return DatastoreConfig{
		Path:     "/var/lib/ncfiledb/datastores.xml",
		FileMode: 0o600,
		LockDir:  os.TempDir(),
	}
}

// Load reads and parses a DatastoreConfig from a YAML file at path,
// filling in defaults for any field the file leaves zero.
func Load(path string) (DatastoreConfig, error) {
	cfg := DefaultDatastoreConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DatastoreConfig{}, ncerrors.ConfigNotFound(path)
		}
		return DatastoreConfig{}, ncerrors.ConfigParseError(path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DatastoreConfig{}, ncerrors.ConfigParseError(path, err)
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0o600
	}
	if cfg.LockDir == "" {
		cfg.LockDir = os.TempDir()
	}
	return cfg, nil
}
