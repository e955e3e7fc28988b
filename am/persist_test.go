package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserConfig(t *testing.T) {
	configDir, _ := isolate(t)

	path, created, err := EnsureUserConfig()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(configDir, UserConfigFile), path)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultTickIntervalMS, cfg.Reminders.TickIntervalMS)
	assert.Empty(t, cfg.APIKey)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "api_key")

	// Second call leaves an existing file alone
	require.NoError(t, os.WriteFile(path, []byte("model = \"mine\"\n"), 0644))
	_, created, err = EnsureUserConfig()
	require.NoError(t, err)
	assert.False(t, created)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "model = \"mine\"\n", string(data))
}

func TestSetUserValue(t *testing.T) {
	configDir, _ := isolate(t)
	path := filepath.Join(configDir, UserConfigFile)

	require.NoError(t, SetUserValue("message_history.max_size", "30"))
	require.NoError(t, SetUserValue("reminders.timezone", "Europe/Amsterdam"))

	var written map[string]interface{}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, toml.Unmarshal(data, &written))

	history := written["message_history"].(map[string]interface{})
	assert.EqualValues(t, 30, history["max_size"])

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.MessageHistory.MaxSize)
	assert.Equal(t, "Europe/Amsterdam", cfg.Reminders.Timezone)

	_, err = os.Stat(path + ".back1")
	assert.NoError(t, err, "second write backs up the first")
}

func TestSetUserValue_Rejects(t *testing.T) {
	isolate(t)

	err := SetUserValue("no.such.key", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")

	err = SetUserValue("reminders.tick_interval_ms", "fast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an integer")
}

func TestCreateBackup_Rotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, createBackup(path), "missing file is not an error")

	for _, content := range []string{"v1", "v2", "v3", "v4"} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		require.NoError(t, createBackup(path))
	}

	expect := map[string]string{".back1": "v4", ".back2": "v3", ".back3": "v2"}
	for suffix, content := range expect {
		data, err := os.ReadFile(path + suffix)
		require.NoError(t, err)
		assert.Equal(t, content, string(data), suffix)
	}
}
