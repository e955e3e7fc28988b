// Package schedule keeps the in-memory set of reminder jobs and fires the
// ones that are due.
package schedule

import (
	"time"

	"github.com/teranos/smolassistant/remind/interval"
)

// Kind distinguishes reminders that fire once from those that repeat
type Kind int

const (
	OneTime Kind = iota
	Recurring
)

func (k Kind) String() string {
	switch k {
	case OneTime:
		return "one-time"
	case Recurring:
		return "recurring"
	default:
		return "unknown"
	}
}

// Job is a registered reminder waiting to fire.
// Rule is nil for one-time jobs.
type Job struct {
	ID         string
	Kind       Kind
	Message    string
	Interval   string // as given by the user, recurring only
	TimeSpec   string // as given by the user, recurring only
	NextFireAt time.Time
	Rule       interval.Rule
}

// Pattern renders the recurrence the way the user wrote it,
// e.g. "day at 09:00" or "2 hours". Empty for one-time jobs.
func (j Job) Pattern() string {
	if j.Kind != Recurring {
		return ""
	}
	if j.TimeSpec != "" {
		return j.Interval + " at " + j.TimeSpec
	}
	return j.Interval
}

// Due reports whether the job should fire at now
func (j Job) Due(now time.Time) bool {
	return !j.NextFireAt.After(now)
}
