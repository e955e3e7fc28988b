package interval

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/smolassistant/errors"
)

// ErrInvalidInterval is returned by Parse for any interval or time spec it
// cannot turn into a Rule. Hints on the error say what was expected.
var ErrInvalidInterval = errors.New("invalid interval")

var (
	clockPattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	offsetPattern = regexp.MustCompile(`^:(\d{2})$`)
)

// bare units usable on their own ("hour"); "week" needs a count
var bareUnits = map[string]Unit{
	"second": Second,
	"minute": Minute,
	"hour":   Hour,
	"day":    Day,
}

var countedUnits = map[string]Unit{
	"second": Second, "seconds": Second,
	"minute": Minute, "minutes": Minute,
	"hour": Hour, "hours": Hour,
	"day": Day, "days": Day,
	"week": Week, "weeks": Week,
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Parse resolves an interval and optional time spec into a Rule.
//
// Accepted intervals, case-insensitive:
//
//	second | minute | hour | day      every one unit
//	monday .. sunday                   weekly on that day
//	<N> <unit>[s]                      every N seconds/minutes/hours/days/weeks
//
// The time spec is "HH:MM" for day and weekdays, ":MM" for hour, ":SS" for
// minute, and must be empty otherwise.
func Parse(interval, timeSpec string) (Rule, error) {
	iv := strings.ToLower(strings.TrimSpace(interval))
	spec := strings.TrimSpace(timeSpec)

	if iv == "" {
		return nil, errors.WithHint(
			errors.Wrap(ErrInvalidInterval, "empty interval"),
			"use a unit such as 'day', a weekday such as 'monday', or a count such as '2 hours'")
	}

	if unit, ok := bareUnits[iv]; ok {
		return parseBare(iv, unit, spec)
	}

	if day, ok := weekdays[iv]; ok {
		if spec == "" {
			return Weekly{Day: day}, nil
		}
		hour, minute, err := parseClock(iv, spec)
		if err != nil {
			return nil, err
		}
		return Weekly{Day: day, Hour: hour, Minute: minute}, nil
	}

	return parseCounted(iv, spec)
}

func parseBare(iv string, unit Unit, spec string) (Rule, error) {
	if spec == "" {
		return Every{N: 1, Unit: unit}, nil
	}

	switch unit {
	case Day:
		hour, minute, err := parseClock(iv, spec)
		if err != nil {
			return nil, err
		}
		return Daily{Hour: hour, Minute: minute}, nil
	case Hour:
		minute, err := parseOffset(iv, spec, "minute")
		if err != nil {
			return nil, err
		}
		return Hourly{Minute: minute}, nil
	case Minute:
		second, err := parseOffset(iv, spec, "second")
		if err != nil {
			return nil, err
		}
		return Minutely{Second: second}, nil
	default:
		return nil, unexpectedSpec(iv, spec)
	}
}

func parseCounted(iv, spec string) (Rule, error) {
	fields := strings.Fields(iv)
	if len(fields) != 2 {
		return nil, errors.WithHint(
			errors.Wrapf(ErrInvalidInterval, "unrecognised interval %q", iv),
			"use a unit such as 'day', a weekday such as 'monday', or a count such as '2 hours'")
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return nil, errors.WithHintf(
			errors.Wrapf(ErrInvalidInterval, "invalid count %q in interval %q", fields[0], iv),
			"the count must be a positive whole number, e.g. '3 %s'", fields[1])
	}

	unit, ok := countedUnits[fields[1]]
	if !ok {
		return nil, errors.WithHint(
			errors.Wrapf(ErrInvalidInterval, "unknown unit %q in interval %q", fields[1], iv),
			"units are seconds, minutes, hours, days and weeks")
	}

	if spec != "" {
		return nil, unexpectedSpec(iv, spec)
	}
	return Every{N: n, Unit: unit}, nil
}

func parseClock(iv, spec string) (int, int, error) {
	match := clockPattern.FindStringSubmatch(spec)
	if match == nil {
		return 0, 0, errors.WithHintf(
			errors.Wrapf(ErrInvalidInterval, "invalid time %q for interval %q", spec, iv),
			"'%s' takes a time of day as HH:MM, e.g. '10:30'", iv)
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour > 23 || minute > 59 {
		return 0, 0, errors.WithHint(
			errors.Wrapf(ErrInvalidInterval, "time %q out of range", spec),
			"hours run 00-23 and minutes 00-59")
	}
	return hour, minute, nil
}

func parseOffset(iv, spec, part string) (int, error) {
	match := offsetPattern.FindStringSubmatch(spec)
	if match == nil {
		return 0, errors.WithHintf(
			errors.Wrapf(ErrInvalidInterval, "invalid time %q for interval %q", spec, iv),
			"'%s' takes the %s as :%s, e.g. ':30'", iv, part, strings.ToUpper(part[:1]+part[:1]))
	}
	value, _ := strconv.Atoi(match[1])
	if value > 59 {
		return 0, errors.WithHintf(
			errors.Wrapf(ErrInvalidInterval, "%s %q out of range", part, spec),
			"%ss run 00-59", part)
	}
	return value, nil
}

func unexpectedSpec(iv, spec string) error {
	return errors.WithHintf(
		errors.Wrapf(ErrInvalidInterval, "interval %q does not take a time spec (got %q)", iv, spec),
		"only 'day', weekdays, 'hour' and 'minute' accept a time spec; leave it empty for '%s'", iv)
}
