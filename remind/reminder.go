// Package remind owns reminders end to end: the durable SQLite store, the
// service that keeps the in-memory schedule in step with it, and the text
// delivered when a reminder fires.
package remind

import (
	"time"

	"github.com/teranos/smolassistant/remind/schedule"
	"github.com/teranos/smolassistant/sym"
)

// Delivered text prefixes
const (
	OneTimePrefix   = sym.Reminder + " REMINDER: "
	RecurringPrefix = sym.Recurring + " RECURRING REMINDER"
)

// OneTimeReminder is a persisted reminder that fires once at DueAt
type OneTimeReminder struct {
	ID        string
	Message   string
	DueAt     time.Time
	CreatedAt time.Time
}

// RecurringReminder is a persisted reminder that repeats until cancelled.
// Interval and TimeSpec are kept as the user wrote them and re-parsed on load.
type RecurringReminder struct {
	ID        string
	Message   string
	Interval  string
	TimeSpec  string
	CreatedAt time.Time
}

// Pattern renders the recurrence, e.g. "day at 09:00" or "2 hours"
func (r RecurringReminder) Pattern() string {
	return schedule.Job{Kind: schedule.Recurring, Interval: r.Interval, TimeSpec: r.TimeSpec}.Pattern()
}

// FormatOneTime is the text delivered when a one-time reminder fires
func FormatOneTime(message string) string {
	return OneTimePrefix + message
}

// FormatRecurring is the text delivered each time a recurring reminder fires
func FormatRecurring(pattern, message string) string {
	return RecurringPrefix + " (" + pattern + "): " + message
}

// FormatJob renders the delivery text for a fired job
func FormatJob(job schedule.Job) string {
	if job.Kind == schedule.Recurring {
		return FormatRecurring(job.Pattern(), job.Message)
	}
	return FormatOneTime(job.Message)
}
