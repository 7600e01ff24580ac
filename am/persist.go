package am

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	burnt "github.com/BurntSushi/toml"
	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
)

// backupCount is how many rotated copies Save keeps.
const backupCount = 3

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config.
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	oldest := backupName(configPath, backupCount)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old backup", logger.FieldPath, oldest, logger.FieldError, err)
	}
	for i := backupCount - 1; i >= 1; i-- {
		from := backupName(configPath, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, backupName(configPath, i+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", from)
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(backupName(configPath, 1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

func backupName(configPath string, n int) string {
	return configPath + ".back" + string(rune('0'+n))
}

// isBackupFile checks if the file is one of the rotated backups.
func isBackupFile(path string) bool {
	base := filepath.Base(path)
	for i := 1; i <= backupCount; i++ {
		if base == backupName(ConfigFileName, i) {
			return true
		}
	}
	return false
}

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// Save writes cfg to path as TOML, rotating backups of the previous file.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "refusing to save invalid config")
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// Init writes the default configuration to path unless a file is already
// there.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.WithHint(
			errors.Newf("%s already exists", path),
			"edit it directly, or remove it to start over")
	}
	return Save(path, Default())
}

// CheckFile decodes path strictly and returns the keys that do not belong
// to the configuration. A syntax error is returned as an error.
func CheckFile(path string) ([]string, error) {
	var cfg Config
	md, err := burnt.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFoundError("config file %s", path)
		}
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	sort.Strings(unknown)
	if err := cfg.Validate(); err != nil {
		return unknown, errors.Wrapf(err, "check %s", path)
	}
	return unknown, nil
}
