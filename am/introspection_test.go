package am

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findSetting(t *testing.T, in *ConfigIntrospection, key string) SettingInfo {
	t.Helper()
	for _, s := range in.Settings {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("setting %s not found", key)
	return SettingInfo{}
}

func TestMarkSettingsFromSource(t *testing.T) {
	settings := map[string]interface{}{
		"model": "x",
		"reminders": map[string]interface{}{
			"timezone": "UTC",
		},
	}

	sources := make(map[string]SourceInfo)
	markSettingsFromSource(settings, "", SourceProject, "/p/smolassistant.toml", sources)

	assert.Len(t, sources, 2)
	assert.Equal(t, SourceInfo{Source: SourceProject, Path: "/p/smolassistant.toml"}, sources["reminders.timezone"])
	assert.Equal(t, SourceProject, sources["model"].Source)
}

func TestGetConfigIntrospection(t *testing.T) {
	configDir, _ := isolate(t)
	userFile := filepath.Join(configDir, UserConfigFile)
	writeFile(t, userFile, "[reminders]\ntimezone = \"UTC\"\n")
	t.Setenv("SMOLASSISTANT_REMINDERS_TICK_INTERVAL_MS", "250")
	t.Setenv("ANTHROPIC_API_KEY", "sk-secret")

	in, err := GetConfigIntrospection()
	require.NoError(t, err)
	assert.Equal(t, userFile, in.UserFile)
	assert.Empty(t, in.ProjectFile)

	tz := findSetting(t, in, "reminders.timezone")
	assert.Equal(t, SourceUser, tz.Source)
	assert.Equal(t, userFile, tz.SourcePath)

	tick := findSetting(t, in, "reminders.tick_interval_ms")
	assert.Equal(t, SourceEnvironment, tick.Source)
	assert.Equal(t, "SMOLASSISTANT_REMINDERS_TICK_INTERVAL_MS", tick.SourcePath)

	model := findSetting(t, in, "model")
	assert.Equal(t, SourceDefault, model.Source)

	key := findSetting(t, in, "api_key")
	assert.Equal(t, Redacted, key.Value)
	assert.Equal(t, "ANTHROPIC_API_KEY", key.SourcePath)

	// Keys are reported in sorted order
	for i := 1; i < len(in.Settings); i++ {
		assert.Less(t, in.Settings[i-1].Key, in.Settings[i].Key)
	}

	summary := GetConfigSummary()
	assert.Equal(t, 1, summary[string(SourceUser)])
	assert.Equal(t, 2, summary[string(SourceEnvironment)])
}

func TestEffectiveSettings_RedactsSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("SMOLASSISTANT_API_KEY", "sk-secret")

	settings := EffectiveSettings()
	assert.Equal(t, Redacted, settings["api_key"])

	reminders, ok := settings["reminders"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, DefaultDBPath, reminders["db_path"])
}
