// Package interval turns a recurring reminder's interval and time spec into
// a Rule that computes the next fire time.
//
//	rule, err := interval.Parse("monday", "09:00")
//	next := rule.Next(time.Now()) // next Monday 09:00, strictly after now
package interval

import (
	"fmt"
	"time"
)

// Unit is the step of a counted interval such as "3 hours".
type Unit int

const (
	Second Unit = iota
	Minute
	Hour
	Day
	Week
)

func (u Unit) String() string {
	switch u {
	case Second:
		return "second"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// Rule computes occurrences of a recurring reminder.
// Next is pure and always returns an instant strictly after now, in now's location.
type Rule interface {
	Next(now time.Time) time.Time
	String() string
}

// Every fires each N units after the previous occurrence.
// Day and Week add calendar days, so a daily step keeps its wall-clock time across DST.
type Every struct {
	N    int
	Unit Unit
}

func (e Every) Next(now time.Time) time.Time {
	n := e.N
	if n < 1 {
		n = 1
	}
	switch e.Unit {
	case Second:
		return now.Add(time.Duration(n) * time.Second)
	case Minute:
		return now.Add(time.Duration(n) * time.Minute)
	case Hour:
		return now.Add(time.Duration(n) * time.Hour)
	case Week:
		return now.AddDate(0, 0, 7*n)
	default:
		return now.AddDate(0, 0, n)
	}
}

func (e Every) String() string {
	if e.N == 1 {
		return "every " + e.Unit.String()
	}
	return fmt.Sprintf("every %d %ss", e.N, e.Unit)
}

// Daily fires once a day at Hour:Minute.
type Daily struct {
	Hour, Minute int
}

func (d Daily) Next(now time.Time) time.Time {
	y, m, day := now.Date()
	next := time.Date(y, m, day, d.Hour, d.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, day+1, d.Hour, d.Minute, 0, 0, now.Location())
	}
	return next
}

func (d Daily) String() string {
	return fmt.Sprintf("every day at %02d:%02d", d.Hour, d.Minute)
}

// Weekly fires once a week on Day at Hour:Minute:Second.
type Weekly struct {
	Day                  time.Weekday
	Hour, Minute, Second int
}

func (w Weekly) Next(now time.Time) time.Time {
	y, m, day := now.Date()
	ahead := (int(w.Day) - int(now.Weekday()) + 7) % 7
	next := time.Date(y, m, day+ahead, w.Hour, w.Minute, w.Second, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, day+ahead+7, w.Hour, w.Minute, w.Second, 0, now.Location())
	}
	return next
}

func (w Weekly) String() string {
	if w.Second != 0 {
		return fmt.Sprintf("every %s at %02d:%02d:%02d", w.Day, w.Hour, w.Minute, w.Second)
	}
	return fmt.Sprintf("every %s at %02d:%02d", w.Day, w.Hour, w.Minute)
}

// Anchor pins a weekday rule that was given no time spec to the time of day
// of created, so "monday" repeats at the moment of day it was set.
// Any other rule is returned unchanged.
func Anchor(rule Rule, timeSpec string, created time.Time) Rule {
	w, ok := rule.(Weekly)
	if !ok || timeSpec != "" {
		return rule
	}
	w.Hour, w.Minute, w.Second = created.Clock()
	return w
}

// Hourly fires once an hour at the given minute past the hour.
type Hourly struct {
	Minute int
}

func (h Hourly) Next(now time.Time) time.Time {
	y, mo, d := now.Date()
	next := time.Date(y, mo, d, now.Hour(), h.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(time.Hour)
	}
	return next
}

func (h Hourly) String() string {
	return fmt.Sprintf("every hour at :%02d", h.Minute)
}

// Minutely fires once a minute at the given second.
type Minutely struct {
	Second int
}

func (m Minutely) Next(now time.Time) time.Time {
	y, mo, d := now.Date()
	next := time.Date(y, mo, d, now.Hour(), now.Minute(), m.Second, 0, now.Location())
	if !next.After(now) {
		next = next.Add(time.Minute)
	}
	return next
}

func (m Minutely) String() string {
	return fmt.Sprintf("every minute at :%02d", m.Second)
}
