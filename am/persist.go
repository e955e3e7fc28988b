package am

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/logger"
)

// EnsureUserConfig writes the default config file on first run. It returns
// the file path and whether it was created by this call.
func EnsureUserConfig() (string, bool, error) {
	path, err := UserConfigPath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, errors.Wrapf(err, "failed to stat %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return "", false, errors.Wrap(err, "failed to create config directory")
	}

	data, err := toml.Marshal(defaultFileContents())
	if err != nil {
		return "", false, errors.Wrap(err, "failed to marshal default config")
	}

	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return "", false, errors.Wrapf(err, "failed to write %s", path)
	}

	logger.Infow("Wrote default config", logger.FieldPath, path)
	return path, true, nil
}

// SetUserValue stores key = raw in the user config file. raw is converted to
// the type of the key's default, so "30" becomes an integer for
// message_history.max_size. The previous file is kept as a rotating backup.
func SetUserValue(key, raw string) error {
	defaults := defaultValues()
	def, known := defaults[key]
	if !known {
		return errors.WithHintf(errors.Newf("unknown config key %q", key),
			"run `smolassistant am show` to list the available keys")
	}

	value, err := coerce(raw, def)
	if err != nil {
		return errors.Wrapf(err, "invalid value for %s", key)
	}

	config, path, err := loadOrInitializeUserConfig()
	if err != nil {
		return err
	}

	setNested(config, strings.Split(key, "."), value)

	if err := saveUserConfig(config, path); err != nil {
		return err
	}

	Reset()
	return nil
}

func coerce(raw string, def interface{}) (interface{}, error) {
	switch def.(type) {
	case int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.Newf("%q is not an integer", raw)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.Newf("%q is not a boolean", raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

func setNested(config map[string]interface{}, path []string, value interface{}) {
	if len(path) == 1 {
		config[path[0]] = value
		return
	}

	section, ok := config[path[0]].(map[string]interface{})
	if !ok {
		section = make(map[string]interface{})
		config[path[0]] = section
	}
	setNested(section, path[1:], value)
}

// loadOrInitializeUserConfig loads the user config file, or an empty map if it doesn't exist
func loadOrInitializeUserConfig() (map[string]interface{}, string, error) {
	configPath, err := UserConfigPath()
	if err != nil {
		return nil, "", err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return nil, "", errors.Wrap(err, "failed to create config directory")
	}

	config := make(map[string]interface{})
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrapf(err, "failed to parse %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, "", errors.Wrapf(err, "failed to read %s", configPath)
	}

	return config, configPath, nil
}

// saveUserConfig writes the config with a backup of the previous version
func saveUserConfig(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Mark this as our own write so a running watcher doesn't reload on it
	if w := GetGlobalWatcher(); w != nil {
		w.MarkOwnWrite()
	}

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", logger.FieldPath, back3, logger.FieldError, err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}
