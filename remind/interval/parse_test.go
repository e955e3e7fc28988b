package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/smolassistant/errors"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		interval string
		timeSpec string
		want     Rule
	}{
		{"second", "", Every{N: 1, Unit: Second}},
		{"minute", "", Every{N: 1, Unit: Minute}},
		{" Hour ", "", Every{N: 1, Unit: Hour}},
		{"DAY", "", Every{N: 1, Unit: Day}},
		{"2 hours", "", Every{N: 2, Unit: Hour}},
		{"2 hour", "", Every{N: 2, Unit: Hour}},
		{"30 seconds", "", Every{N: 30, Unit: Second}},
		{"1 day", "", Every{N: 1, Unit: Day}},
		{"3 weeks", "", Every{N: 3, Unit: Week}},
		{"day", "09:00", Daily{Hour: 9, Minute: 0}},
		{"day", "9:05", Daily{Hour: 9, Minute: 5}},
		{"day", " 23:59 ", Daily{Hour: 23, Minute: 59}},
		{"Monday", "14:15", Weekly{Day: time.Monday, Hour: 14, Minute: 15}},
		{"friday", "", Weekly{Day: time.Friday}},
		{"sunday", "07:30", Weekly{Day: time.Sunday, Hour: 7, Minute: 30}},
		{"hour", ":45", Hourly{Minute: 45}},
		{"minute", ":30", Minutely{Second: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.interval+"@"+tt.timeSpec, func(t *testing.T) {
			rule, err := Parse(tt.interval, tt.timeSpec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		timeSpec string
	}{
		{"empty", "", ""},
		{"bare week", "week", ""},
		{"bare plural", "hours", ""},
		{"unknown word", "fortnight", ""},
		{"zero count", "0 days", ""},
		{"negative count", "-1 days", ""},
		{"non-numeric count", "two days", ""},
		{"unknown unit", "2 fortnights", ""},
		{"three words", "every 2 days", ""},
		{"counted with spec", "2 hours", "10:00"},
		{"second with spec", "second", ":10"},
		{"hour out of range", "day", "25:00"},
		{"minute out of range", "day", "10:60"},
		{"not a clock", "day", "9am"},
		{"clock for hour", "hour", "10:00"},
		{"offset for day", "day", ":30"},
		{"offset out of range", "minute", ":75"},
		{"weekday bad clock", "monday", "noon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Parse(tt.interval, tt.timeSpec)
			require.Error(t, err)
			assert.Nil(t, rule)
			assert.True(t, errors.Is(err, ErrInvalidInterval), "got %v", err)
			assert.NotEmpty(t, errors.Hint(err), "every rejection explains itself")
		})
	}
}

func TestParse_HintNamesExpectedFormat(t *testing.T) {
	_, err := Parse("day", "half past nine")
	require.Error(t, err)
	assert.Contains(t, errors.Hint(err), "HH:MM")

	_, err = Parse("hour", "45")
	require.Error(t, err)
	assert.Contains(t, errors.Hint(err), ":MM")

	_, err = Parse("minute", "30")
	require.Error(t, err)
	assert.Contains(t, errors.Hint(err), ":SS")
}

func TestParse_PluralAndSingularAgree(t *testing.T) {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	for _, unit := range []string{"second", "minute", "hour", "day", "week"} {
		singular, err := Parse("4 "+unit, "")
		require.NoError(t, err)
		plural, err := Parse("4 "+unit+"s", "")
		require.NoError(t, err)
		assert.Equal(t, singular.Next(now), plural.Next(now), unit)
	}
}
