package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/smolassistant/errors"
)

const (
	// AppName names the config directory
	AppName = "smolassistant"
	// EnvPrefix prefixes every environment override (SMOLASSISTANT_REMINDERS_TIMEZONE, ...)
	EnvPrefix = "SMOLASSISTANT"
	// UserConfigFile is the file name inside the config directory
	UserConfigFile = "config.toml"
	// ProjectConfigFile is searched for from the working directory upward
	ProjectConfigFile = "smolassistant.toml"
)

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records which file set each key during the last load
	ConfigSources = map[string]SourceInfo{}

	// fileErrors holds config files that could not be merged during the last load
	fileErrors = map[string]error{}
)

// Load reads the configuration using Viper. The result is cached until Reset.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViperLocked()

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViperLocked()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, on top of the
// defaults but without environment overrides
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
	fileErrors = map[string]error{}
}

func initViperLocked() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindSensitiveEnvVars(v)

	SetDefaults(v)

	// defaults -> user -> project; env vars sit above all of them
	ConfigSources = map[string]SourceInfo{}
	fileErrors = mergeConfigFiles(v, ConfigSources)

	viperInstance = v
	return v
}

// ConfigDir returns the directory holding the user config file and, by
// default, the reminder database. XDG_CONFIG_HOME is honoured on every
// platform so tests and containers can relocate it.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine config directory")
	}
	return filepath.Join(base, AppName), nil
}

// UserConfigPath returns the path of the user config file, which may not exist yet
func UserConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, UserConfigFile), nil
}

// FindProjectConfig searches for smolassistant.toml by walking up the
// directory tree. Returns an empty string if none is found.
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges configuration files in precedence order (lowest
// first). Files are merged into viper's config layer so env vars still win.
func mergeConfigFiles(v *viper.Viper, sources map[string]SourceInfo) map[string]error {
	type layer struct {
		path   string
		source ConfigSource
	}

	failed := map[string]error{}
	var layers []layer
	if userPath, err := UserConfigPath(); err == nil {
		layers = append(layers, layer{userPath, SourceUser})
	}
	if projectPath := FindProjectConfig(); projectPath != "" {
		layers = append(layers, layer{projectPath, SourceProject})
	}

	for _, l := range layers {
		if _, err := os.Stat(l.path); err != nil {
			continue
		}

		fileViper := viper.New()
		fileViper.SetConfigFile(l.path)
		fileViper.SetConfigType("toml")

		if err := fileViper.ReadInConfig(); err != nil {
			// a broken file should not stop the assistant from starting on defaults
			failed[l.path] = err
			continue
		}

		settings := fileViper.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			failed[l.path] = err
			continue
		}
		markSettingsFromSource(settings, "", l.source, l.path, sources)
	}
	return failed
}

// markSettingsFromSource records source for every leaf key in settings
func markSettingsFromSource(settings map[string]interface{}, prefix string, source ConfigSource, path string, sources map[string]SourceInfo) {
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]interface{}); ok {
			markSettingsFromSource(nested, fullKey, source, path, sources)
			continue
		}

		sources[fullKey] = SourceInfo{Source: source, Path: path}
	}
}

// LoadErrors returns the config files that failed to parse during the last load
func LoadErrors() map[string]error {
	mu.Lock()
	defer mu.Unlock()

	failed := make(map[string]error, len(fileErrors))
	for path, err := range fileErrors {
		failed[path] = err
	}
	return failed
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return GetViper().GetInt(key)
}

// DatabasePath returns the reminder database path, resolving a relative
// reminders.db_path against the config directory
func (c *Config) DatabasePath() (string, error) {
	path := c.Reminders.DBPath
	if path == "" {
		path = DefaultDBPath
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, path), nil
}
