package remind

import "time"

// Clock supplies the current time to the service
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and reports it in Location (local time when nil)
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
