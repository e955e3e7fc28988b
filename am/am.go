// Package am holds smolassistant's configuration: defaults, the TOML files
// they can be overridden from, and SMOLASSISTANT_* environment variables.
package am

import (
	"fmt"
	"time"

	"github.com/teranos/smolassistant/am/timezone"
)

// Config represents the smolassistant configuration
type Config struct {
	Provider               string `mapstructure:"provider"`
	Model                  string `mapstructure:"model"`
	APIKey                 string `mapstructure:"api_key"`
	MaxContextLength       int    `mapstructure:"max_context_length"`
	AdditionalSystemPrompt string `mapstructure:"additional_system_prompt"`
	AdditionalInstructions string `mapstructure:"additional_instructions"`

	Reminders      RemindersConfig      `mapstructure:"reminders"`
	MessageHistory MessageHistoryConfig `mapstructure:"message_history"`
}

// RemindersConfig configures the reminder store and scheduler
type RemindersConfig struct {
	DBPath         string `mapstructure:"db_path"`          // relative paths resolve against the config directory
	TickIntervalMS int    `mapstructure:"tick_interval_ms"` // how often due reminders are checked
	StopTimeoutMS  int    `mapstructure:"stop_timeout_ms"`  // how long Stop waits for the scheduler loop
	Timezone       string `mapstructure:"timezone"`         // empty = host local time
}

// MessageHistoryConfig bounds the conversation history exposed to the agent
type MessageHistoryConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// TickInterval returns the scheduler tick as a duration
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Reminders.TickIntervalMS) * time.Millisecond
}

// StopTimeout returns how long the service waits for its loop on shutdown
func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.Reminders.StopTimeoutMS) * time.Millisecond
}

// Location resolves reminders.timezone
func (c *Config) Location() (*time.Location, error) {
	return timezone.Resolve(c.Reminders.Timezone)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Provider: %s, Model: %s, Reminders: {DBPath: %s, Timezone: %q}, MessageHistory: {MaxSize: %d}}",
		c.Provider, c.Model, c.Reminders.DBPath, c.Reminders.Timezone, c.MessageHistory.MaxSize)
}
