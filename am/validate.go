package am

import (
	"strings"

	"github.com/teranos/smolassistant/am/timezone"
	"github.com/teranos/smolassistant/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model cannot be empty")
	}
	if c.MaxContextLength <= 0 {
		return errors.Newf("max_context_length must be > 0, got %d", c.MaxContextLength)
	}

	if strings.TrimSpace(c.Reminders.DBPath) == "" {
		return errors.New("reminders.db_path cannot be empty")
	}
	if c.Reminders.TickIntervalMS <= 0 {
		return errors.Newf("reminders.tick_interval_ms must be > 0, got %d", c.Reminders.TickIntervalMS)
	}
	if c.Reminders.StopTimeoutMS <= 0 {
		return errors.Newf("reminders.stop_timeout_ms must be > 0, got %d", c.Reminders.StopTimeoutMS)
	}
	if _, err := timezone.Resolve(c.Reminders.Timezone); err != nil {
		return errors.Wrap(err, "reminders.timezone")
	}

	if c.MessageHistory.MaxSize <= 0 {
		return errors.Newf("message_history.max_size must be > 0, got %d", c.MessageHistory.MaxSize)
	}

	return nil
}
