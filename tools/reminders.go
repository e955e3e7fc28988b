// Package tools exposes the assistant's capabilities as string-in,
// string-out tools for the agent, and serves them over MCP.
package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/smolassistant/errors"
	"github.com/teranos/smolassistant/logger"
	"github.com/teranos/smolassistant/remind"
	"github.com/teranos/smolassistant/remind/interval"
	"github.com/teranos/smolassistant/remind/schedule"
)

// ListTimeLayout renders fire times in reminder listings, e.g. "Friday, March 15 at 04:00 PM"
const ListTimeLayout = "Monday, January 02 at 03:04 PM"

const (
	msgInvalidTime = "Invalid time format. Please use ISO format (YYYY-MM-DD HH:MM:SS). " +
		"Timezones are supported using the '+' or '-' offset format."
	msgSetFailed    = "Failed to set reminder. Please try again."
	msgCancelFailed = "Failed to cancel reminder. Please try again."
	msgNoReminders  = "You have no pending reminders."

	msgInvalidRecurring = "Invalid interval or time specification. Please use one of the following formats:\n" +
		"- Basic intervals: 'second', 'minute', 'hour', 'day'\n" +
		"- Weekday intervals: 'monday', 'tuesday', 'wednesday', etc.\n" +
		"- Numbered intervals: 'X seconds', 'X minutes', 'X hours', 'X days'\n\n" +
		"Time specification depends on the interval:\n" +
		"- For 'day' interval: Use 'HH:MM' format (e.g., '10:30')\n" +
		"- For weekday intervals: Use 'HH:MM' format (e.g., '14:15')\n" +
		"- For 'hour' interval: Use ':MM' format (e.g., ':45')\n" +
		"- For 'minute' interval: Use ':SS' format (e.g., ':30')\n" +
		"- For other intervals: Leave empty"
)

// Reminders is the agent-facing surface of the reminder service.
// Every outcome, including failures, is rendered as text for the agent.
type Reminders struct {
	svc *remind.Service
	log *zap.SugaredLogger
}

// NewReminders creates the reminder tools over svc
func NewReminders(svc *remind.Service, log *zap.SugaredLogger) *Reminders {
	if log == nil {
		log = logger.Logger
	}
	return &Reminders{svc: svc, log: log}
}

// SetReminder sets a one-time reminder for dueTime, an ISO-8601 date-time.
// Times without an offset are read in the service's time zone.
func (r *Reminders) SetReminder(ctx context.Context, message, dueTime string) string {
	dueAt, err := remind.ParseDueTime(dueTime, r.svc.Location())
	if err != nil {
		return msgInvalidTime
	}

	created, err := r.svc.CreateOneTime(ctx, message, dueAt)
	if err != nil {
		r.log.Errorw("set_reminder failed", logger.FieldTool, "set_reminder", logger.FieldError, err)
		return msgSetFailed
	}

	if created.Immediate {
		return fmt.Sprintf("Reminder triggered immediately as the due time (%s) has already passed.", dueTime)
	}
	return fmt.Sprintf("One-time reminder set for %s. (Reminder ID: %s)", dueTime, created.ID)
}

// SetRecurringReminder sets a reminder that repeats per interval and timeSpec
func (r *Reminders) SetRecurringReminder(ctx context.Context, message, iv, timeSpec string) string {
	created, err := r.svc.CreateRecurring(ctx, message, iv, timeSpec)
	if err != nil {
		if errors.Is(err, interval.ErrInvalidInterval) {
			r.log.Debugw("set_recurring_reminder rejected",
				logger.FieldInterval, iv,
				logger.FieldTimeSpec, timeSpec,
				"hint", errors.Hint(err),
			)
			return msgInvalidRecurring
		}
		r.log.Errorw("set_recurring_reminder failed", logger.FieldTool, "set_recurring_reminder", logger.FieldError, err)
		return msgSetFailed
	}

	pattern := schedule.Job{
		Kind:     schedule.Recurring,
		Interval: strings.TrimSpace(iv),
		TimeSpec: strings.TrimSpace(timeSpec),
	}.Pattern()
	return fmt.Sprintf("Recurring reminder set (%s). (Reminder ID: %s)", pattern, created.ID)
}

// GetReminders lists pending reminders, one-time first, numbered continuously
func (r *Reminders) GetReminders() string {
	pending := r.svc.ListPending()
	if pending.Len() == 0 {
		return msgNoReminders
	}

	loc := r.svc.Location()
	var lines []string
	i := 1

	if len(pending.OneTime) > 0 {
		lines = append(lines, "One-time reminders:")
		for _, job := range pending.OneTime {
			lines = append(lines, fmt.Sprintf("%d. %s - %s (ID: %s)",
				i, job.Message, job.NextFireAt.In(loc).Format(ListTimeLayout), job.ID))
			i++
		}
	}

	if len(pending.Recurring) > 0 {
		header := "Recurring reminders:"
		if len(pending.OneTime) > 0 {
			header = "\n" + header
		}
		lines = append(lines, header)
		for _, job := range pending.Recurring {
			lines = append(lines, fmt.Sprintf("%d. %s - Next: %s, Pattern: %s (ID: %s)",
				i, job.Message, job.NextFireAt.In(loc).Format(ListTimeLayout), job.Pattern(), job.ID))
			i++
		}
	}

	return strings.Join(lines, "\n")
}

// CancelReminder cancels the reminder with id
func (r *Reminders) CancelReminder(ctx context.Context, id string) string {
	id = strings.TrimSpace(id)
	result, err := r.svc.Cancel(ctx, id)

	if !result.Found {
		if err != nil {
			r.log.Errorw("cancel_reminder failed", logger.FieldReminderID, id, logger.FieldError, err)
			return msgCancelFailed
		}
		return fmt.Sprintf("Could not find reminder with ID %s.", id)
	}

	if err != nil {
		// Unscheduled, but the row survives and would return after a restart
		return fmt.Sprintf("Reminder '%s' (ID: %s) was stopped but could not be removed from storage. Please try again.",
			result.Message, id)
	}

	if result.Kind == schedule.Recurring {
		return fmt.Sprintf("Recurring reminder '%s' (%s) (ID: %s) has been cancelled.",
			result.Message, result.Pattern(), id)
	}
	return fmt.Sprintf("One-time reminder '%s' (ID: %s) has been cancelled.", result.Message, id)
}
