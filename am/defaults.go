package am

import (
	"github.com/spf13/viper"
)

// Default values shared by SetDefaults and the first-run config file
const (
	DefaultProvider         = "anthropic"
	DefaultModel            = "claude-3-5-haiku-latest"
	DefaultMaxContextLength = 99999
	DefaultDBPath           = "reminders.sqlite"
	DefaultTickIntervalMS   = 1000
	DefaultStopTimeoutMS    = 5000
	DefaultHistorySize      = 20
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	for key, value := range defaultValues() {
		v.SetDefault(key, value)
	}
}

func defaultValues() map[string]interface{} {
	return map[string]interface{}{
		"provider":                 DefaultProvider,
		"model":                    DefaultModel,
		"api_key":                  "",
		"max_context_length":       DefaultMaxContextLength,
		"additional_system_prompt": "",
		"additional_instructions":  "",

		"reminders.db_path":          DefaultDBPath,
		"reminders.tick_interval_ms": DefaultTickIntervalMS,
		"reminders.stop_timeout_ms":  DefaultStopTimeoutMS,
		"reminders.timezone":         "",

		"message_history.max_size": DefaultHistorySize,
	}
}

// defaultFileContents is what the first-run config file holds. The API key
// is left out so it never lands on disk unless the user puts it there.
func defaultFileContents() map[string]interface{} {
	return map[string]interface{}{
		"provider":           DefaultProvider,
		"model":              DefaultModel,
		"max_context_length": DefaultMaxContextLength,
		"reminders": map[string]interface{}{
			"db_path":          DefaultDBPath,
			"tick_interval_ms": DefaultTickIntervalMS,
			"stop_timeout_ms":  DefaultStopTimeoutMS,
			"timezone":         "",
		},
		"message_history": map[string]interface{}{
			"max_size": DefaultHistorySize,
		},
	}
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	// SMOLASSISTANT_API_KEY wins, the provider's own variable is the fallback
	v.BindEnv("api_key", EnvPrefix+"_API_KEY", "ANTHROPIC_API_KEY")
}
