package artifact

import (
	"fmt"
	"time"

	// Embedded zone database so Asia/Taipei resolves on hosts without one.
	_ "time/tzdata"
)

// DefaultTimezone is used when a run does not configure one.
const DefaultTimezone = "Asia/Taipei"

const fileStampLayout = "20060102-150405"

// Clock formats timestamps in a fixed zone. Artifacts written by a run all
// share the clock's zone so reports from different hosts line up.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock for the named IANA zone. An empty name selects DefaultTimezone.
func NewClock(zone string) (*Clock, error) {
	if zone == "" {
		zone = DefaultTimezone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", zone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// Zone returns the zone name.
func (c *Clock) Zone() string {
	return c.loc.String()
}

// Now returns the current time in the clock's zone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// ISO returns the current time as ISO-8601 with the zone offset, for example
// 2026-10-19T14:03:11+08:00.
func (c *Clock) ISO() string {
	return c.Now().Format(time.RFC3339)
}

// FileStamp returns the current time as yyyyMMdd-HHmmss for use in file names.
func (c *Clock) FileStamp() string {
	return c.Now().Format(fileStampLayout)
}

// Format renders t in the clock's zone as ISO-8601.
func (c *Clock) Format(t time.Time) string {
	return t.In(c.loc).Format(time.RFC3339)
}
