package tools

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/smolassistant/history"
	smoltest "github.com/teranos/smolassistant/internal/testing"
	"github.com/teranos/smolassistant/remind"
)

// Wednesday, 13 March 2024, 08:00 UTC
var now = time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type deliveries struct {
	mu    sync.Mutex
	texts []string
}

func (d *deliveries) deliver(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, text)
}

func (d *deliveries) all() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...)
}

func newTestReminders(t *testing.T) (*Reminders, *deliveries) {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	inbox := &deliveries{}

	svc := remind.NewService(
		remind.NewStore(smoltest.CreateTestDB(t), log),
		inbox.deliver,
		remind.Config{
			TickInterval: time.Hour, // nothing fires during these tests
			Location:     time.UTC,
			Clock:        fixedClock{now},
		},
		log,
	)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Stop)

	return NewReminders(svc, log), inbox
}

var idPattern = regexp.MustCompile(`\(Reminder ID: ([0-9a-f-]{36})\)$`)

func reminderID(t *testing.T, text string) string {
	t.Helper()
	match := idPattern.FindStringSubmatch(text)
	require.NotNil(t, match, "no reminder id in %q", text)
	return match[1]
}

func TestSetReminder(t *testing.T) {
	ctx := context.Background()
	r, inbox := newTestReminders(t)

	t.Run("invalid time", func(t *testing.T) {
		assert.Equal(t,
			"Invalid time format. Please use ISO format (YYYY-MM-DD HH:MM:SS). Timezones are supported using the '+' or '-' offset format.",
			r.SetReminder(ctx, "x", "next tuesday"))
	})

	t.Run("already passed", func(t *testing.T) {
		out := r.SetReminder(ctx, "late", "2024-03-13 07:00:00")
		assert.Equal(t, "Reminder triggered immediately as the due time (2024-03-13 07:00:00) has already passed.", out)
		assert.Equal(t, []string{"🔔 REMINDER: late"}, inbox.all())
	})

	t.Run("future", func(t *testing.T) {
		out := r.SetReminder(ctx, "call mum", "2024-03-13 09:30:00")
		assert.Regexp(t, `^One-time reminder set for 2024-03-13 09:30:00\. \(Reminder ID: `, out)
		reminderID(t, out)
	})
}

func TestSetRecurringReminder(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestReminders(t)

	out := r.SetRecurringReminder(ctx, "stand-up", "day", "09:00")
	assert.Regexp(t, `^Recurring reminder set \(day at 09:00\)\. \(Reminder ID: `, out)
	reminderID(t, out)

	out = r.SetRecurringReminder(ctx, "drink water", "2 hours", "")
	assert.Regexp(t, `^Recurring reminder set \(2 hours\)\. `, out)

	out = r.SetRecurringReminder(ctx, "nope", "fortnight", "")
	assert.Equal(t, msgInvalidRecurring, out)
	assert.Contains(t, out, "- Basic intervals: 'second', 'minute', 'hour', 'day'")
}

func TestGetReminders(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		r, _ := newTestReminders(t)
		assert.Equal(t, "You have no pending reminders.", r.GetReminders())
	})

	t.Run("both kinds numbered continuously", func(t *testing.T) {
		r, _ := newTestReminders(t)
		oneID := reminderID(t, r.SetReminder(ctx, "call mum", "2024-03-13 09:30:00"))
		recID := reminderID(t, r.SetRecurringReminder(ctx, "weekly review", "Friday", "16:00"))

		want := "One-time reminders:\n" +
			"1. call mum - Wednesday, March 13 at 09:30 AM (ID: " + oneID + ")\n" +
			"\nRecurring reminders:\n" +
			"2. weekly review - Next: Friday, March 15 at 04:00 PM, Pattern: Friday at 16:00 (ID: " + recID + ")"
		assert.Equal(t, want, r.GetReminders())
	})

	t.Run("recurring only", func(t *testing.T) {
		r, _ := newTestReminders(t)
		recID := reminderID(t, r.SetRecurringReminder(ctx, "stretch", "hour", ":30"))

		want := "Recurring reminders:\n" +
			"1. stretch - Next: Wednesday, March 13 at 08:30 AM, Pattern: hour at :30 (ID: " + recID + ")"
		assert.Equal(t, want, r.GetReminders())
	})
}

func TestCancelReminder(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestReminders(t)

	recID := reminderID(t, r.SetRecurringReminder(ctx, "stand-up", "day", "09:00"))
	oneID := reminderID(t, r.SetReminder(ctx, "dentist", "2024-03-14T10:00:00Z"))

	assert.Equal(t,
		"Recurring reminder 'stand-up' (day at 09:00) (ID: "+recID+") has been cancelled.",
		r.CancelReminder(ctx, recID))
	assert.Equal(t,
		"One-time reminder 'dentist' (ID: "+oneID+") has been cancelled.",
		r.CancelReminder(ctx, oneID))
	assert.Equal(t,
		"Could not find reminder with ID "+oneID+".",
		r.CancelReminder(ctx, oneID))

	assert.Equal(t, "You have no pending reminders.", r.GetReminders())
}

func TestGetMessageHistory(t *testing.T) {
	h := history.New(2)
	tool := NewHistory(h)
	assert.Equal(t, "", tool.GetMessageHistory())

	h.Add(history.RoleUser, "hi")
	h.Add(history.RoleAssistant, "hello")
	h.Add(history.RoleReminder, "🔔 REMINDER: stretch")
	assert.Equal(t, "Assistant: hello\n\nReminder: 🔔 REMINDER: stretch", tool.GetMessageHistory())
}
