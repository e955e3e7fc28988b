package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceUser        ConfigSource = "user"        // $XDG_CONFIG_HOME/smolassistant/config.toml
	SourceProject     ConfigSource = "project"     // smolassistant.toml found upward from cwd
	SourceEnvironment ConfigSource = "environment" // SMOLASSISTANT_* env vars
)

// Redacted replaces secret values in introspection output
const Redacted = "********"

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	UserFile    string        `json:"user_file" yaml:"user_file"`
	ProjectFile string        `json:"project_file,omitempty" yaml:"project_file,omitempty"`
	Settings    []SettingInfo `json:"settings" yaml:"settings"`
}

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string
}

// GetConfigIntrospection returns every effective setting together with the
// source that set it
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, err
	}

	v := GetViper()

	mu.Lock()
	sources := make(map[string]SourceInfo, len(ConfigSources))
	for k, info := range ConfigSources {
		sources[k] = info
	}
	mu.Unlock()

	userFile, _ := UserConfigPath()
	introspection := &ConfigIntrospection{
		UserFile:    userFile,
		ProjectFile: FindProjectConfig(),
		Settings:    make([]SettingInfo, 0),
	}

	flattenSettingsWithSources(v.AllSettings(), "", introspection, sources)
	return introspection, nil
}

// flattenSettingsWithSources flattens settings and assigns sources from sourceMap
func flattenSettingsWithSources(settings map[string]interface{}, prefix string, introspection *ConfigIntrospection, sourceMap map[string]SourceInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nestedMap, ok := value.(map[string]interface{}); ok {
			flattenSettingsWithSources(nestedMap, fullKey, introspection, sourceMap)
			continue
		}

		sourceInfo := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sourceMap[fullKey]; ok {
			sourceInfo = si
		}

		if envKey, ok := envOverride(fullKey); ok {
			sourceInfo = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		if isSecret(fullKey) && value != "" {
			value = Redacted
		}

		introspection.Settings = append(introspection.Settings, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     sourceInfo.Source,
			SourcePath: sourceInfo.Path,
		})
	}
}

// envOverride reports which environment variable, if any, overrides key
func envOverride(key string) (string, bool) {
	candidates := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	if key == "api_key" {
		candidates = append(candidates, "ANTHROPIC_API_KEY")
	}
	for _, envKey := range candidates {
		if os.Getenv(envKey) != "" {
			return envKey, true
		}
	}
	return "", false
}

func isSecret(key string) bool {
	return key == "api_key" || strings.HasSuffix(key, ".api_key")
}

// EffectiveSettings returns the merged settings as a nested map with
// secrets redacted, ready for marshalling by `am show`
func EffectiveSettings() map[string]interface{} {
	return redact(GetViper().AllSettings(), "")
}

func redact(settings map[string]interface{}, prefix string) map[string]interface{} {
	out := make(map[string]interface{}, len(settings))
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		switch typed := value.(type) {
		case map[string]interface{}:
			out[key] = redact(typed, fullKey)
		default:
			if isSecret(fullKey) && value != "" {
				out[key] = Redacted
			} else {
				out[key] = value
			}
		}
	}
	return out
}

// GetConfigSummary counts settings by source
func GetConfigSummary() map[string]int {
	summary := map[string]int{}

	introspection, err := GetConfigIntrospection()
	if err != nil {
		return summary
	}

	for _, setting := range introspection.Settings {
		summary[string(setting.Source)]++
	}
	return summary
}
