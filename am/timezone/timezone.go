// Package timezone resolves the reminders.timezone setting, which may be an
// IANA name in any capitalisation, a common abbreviation, a country code or a
// city, into a *time.Location.
package timezone

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/teranos/smolassistant/errors"
)

// ErrUnknownTimezone is returned when no zone matches the input
var ErrUnknownTimezone = errors.New("unknown timezone")

var cityTimezones = map[string]string{
	"amsterdam":     "Europe/Amsterdam",
	"rotterdam":     "Europe/Amsterdam",
	"berlin":        "Europe/Berlin",
	"munich":        "Europe/Berlin",
	"hamburg":       "Europe/Berlin",
	"london":        "Europe/London",
	"manchester":    "Europe/London",
	"edinburgh":     "Europe/London",
	"dublin":        "Europe/Dublin",
	"paris":         "Europe/Paris",
	"brussels":      "Europe/Brussels",
	"madrid":        "Europe/Madrid",
	"rome":          "Europe/Rome",
	"stockholm":     "Europe/Stockholm",
	"oslo":          "Europe/Oslo",
	"copenhagen":    "Europe/Copenhagen",
	"helsinki":      "Europe/Helsinki",
	"new york":      "America/New_York",
	"boston":        "America/New_York",
	"washington":    "America/New_York",
	"chicago":       "America/Chicago",
	"denver":        "America/Denver",
	"san francisco": "America/Los_Angeles",
	"los angeles":   "America/Los_Angeles",
	"seattle":       "America/Los_Angeles",
	"vancouver":     "America/Vancouver",
	"toronto":       "America/Toronto",
	"montreal":      "America/Toronto",
	"mexico city":   "America/Mexico_City",
	"sao paulo":     "America/Sao_Paulo",
	"buenos aires":  "America/Argentina/Buenos_Aires",
	"sydney":        "Australia/Sydney",
	"melbourne":     "Australia/Sydney",
	"brisbane":      "Australia/Brisbane",
	"auckland":      "Pacific/Auckland",
	"singapore":     "Asia/Singapore",
	"hong kong":     "Asia/Hong_Kong",
	"tokyo":         "Asia/Tokyo",
	"seoul":         "Asia/Seoul",
	"bangalore":     "Asia/Kolkata",
	"mumbai":        "Asia/Kolkata",
	"tel aviv":      "Asia/Jerusalem",
	"dubai":         "Asia/Dubai",
}

var countryTimezones = map[string]string{
	"nl": "Europe/Amsterdam",
	"de": "Europe/Berlin",
	"be": "Europe/Brussels",
	"fr": "Europe/Paris",
	"it": "Europe/Rome",
	"es": "Europe/Madrid",
	"gb": "Europe/London",
	"uk": "Europe/London",
	"ie": "Europe/Dublin",
	"ca": "America/Toronto",
	"us": "America/New_York",
	"mx": "America/Mexico_City",
	"br": "America/Sao_Paulo",
	"au": "Australia/Sydney",
	"nz": "Pacific/Auckland",
	"sg": "Asia/Singapore",
	"jp": "Asia/Tokyo",
	"kr": "Asia/Seoul",
	"in": "Asia/Kolkata",
	"se": "Europe/Stockholm",
	"no": "Europe/Oslo",
	"dk": "Europe/Copenhagen",
	"fi": "Europe/Helsinki",
}

var abbreviationTimezones = map[string]string{
	"pst":  "America/Los_Angeles",
	"pdt":  "America/Los_Angeles",
	"est":  "America/New_York",
	"edt":  "America/New_York",
	"cst":  "America/Chicago",
	"cdt":  "America/Chicago",
	"mst":  "America/Denver",
	"mdt":  "America/Denver",
	"bst":  "Europe/London",
	"cet":  "Europe/Berlin",
	"cest": "Europe/Berlin",
	"ist":  "Asia/Kolkata",
	"sgt":  "Asia/Singapore",
	"jst":  "Asia/Tokyo",
	"aest": "Australia/Sydney",
}

// Resolve returns the location for input. An empty input or "local" means
// the host's local time zone.
func Resolve(input string) (*time.Location, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || strings.EqualFold(trimmed, "local") {
		return time.Local, nil
	}

	name, err := Normalize(trimmed)
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(name)
}

// Normalize resolves input to a canonical IANA zone name.
//
// Abbreviations win over the tz database's legacy zones of the same name, so
// "EST" means America/New_York with daylight saving rather than fixed UTC-5.
func Normalize(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.WithHint(
			errors.Wrap(ErrUnknownTimezone, "timezone cannot be empty"),
			"use an IANA name such as Europe/Berlin")
	}
	lower := strings.ToLower(trimmed)

	if tz, ok := abbreviationTimezones[lower]; ok {
		return tz, nil
	}

	if strings.Contains(trimmed, "/") || strings.EqualFold(trimmed, "UTC") {
		if isValid(trimmed) && !needsCanonicalCase(trimmed) {
			return trimmed, nil
		}
		if candidate := canonicalCase(trimmed); isValid(candidate) {
			return candidate, nil
		}
		if strings.EqualFold(trimmed, "UTC") {
			return "UTC", nil
		}
	}

	if tz, ok := countryTimezones[lower]; ok {
		return tz, nil
	}

	if tz := GuessFromLocation(lower); tz != "" {
		return tz, nil
	}

	return "", errors.WithHint(
		errors.Wrapf(ErrUnknownTimezone, "%q", input),
		"use an IANA name such as Europe/Berlin, an abbreviation such as PST, or a city such as London")
}

// GuessFromLocation maps free text mentioning a known city to its zone.
// Longer city names are tried first so "new york" is not shadowed by "york".
func GuessFromLocation(location string) string {
	lower := strings.ToLower(strings.TrimSpace(location))
	if lower == "" {
		return ""
	}

	cities := make([]string, 0, len(cityTimezones))
	for city := range cityTimezones {
		cities = append(cities, city)
	}
	sort.Slice(cities, func(i, j int) bool {
		if len(cities[i]) != len(cities[j]) {
			return len(cities[i]) > len(cities[j])
		}
		return cities[i] < cities[j]
	})

	for _, city := range cities {
		if strings.Contains(lower, city) {
			return cityTimezones[city]
		}
	}
	return ""
}

// DetectLocal attempts to name the host's time zone, for display in `am show`
func DetectLocal() (string, error) {
	if tz := os.Getenv("TZ"); tz != "" && isValid(tz) {
		return tz, nil
	}

	if name := time.Local.String(); name != "" && name != "Local" && isValid(name) {
		return name, nil
	}

	if data, err := os.ReadFile("/etc/timezone"); err == nil {
		if tz := strings.TrimSpace(string(data)); isValid(tz) {
			return tz, nil
		}
	}

	resolved, err := filepath.EvalSymlinks("/etc/localtime")
	if err == nil {
		if idx := strings.Index(resolved, "zoneinfo/"); idx != -1 {
			if tz := resolved[idx+len("zoneinfo/"):]; isValid(tz) {
				return tz, nil
			}
		}
	}

	return "", errors.New("could not detect local timezone: tried TZ, time.Local, /etc/timezone and /etc/localtime")
}

// canonicalCase title-cases each path segment and each word within it:
// "america/new_york" -> "America/New_York"
func canonicalCase(tz string) string {
	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(tz), " ", "_"), "/")
	for i, part := range parts {
		words := strings.Split(part, "_")
		for j, w := range words {
			words[j] = title(w)
		}
		parts[i] = strings.Join(words, "_")
	}
	return strings.Join(parts, "/")
}

// needsCanonicalCase catches names the host accepts case-insensitively
// but that are not written the way the tz database spells them
func needsCanonicalCase(tz string) bool {
	if strings.ToLower(tz) == tz {
		return true
	}
	for _, part := range strings.Split(tz, "/") {
		if part != "" && part[0] >= 'a' && part[0] <= 'z' {
			return true
		}
	}
	return false
}

func title(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func isValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}
