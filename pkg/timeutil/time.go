package timeutil

import (
	"fmt"
	"time"
	// Embed the zone database so Europe/Warsaw resolves in scratch images.
	_ "time/tzdata"
)

// GatewayDateTimeLayout renders yyyy:MM:dd-HH:mm:ss
const GatewayDateTimeLayout = "2006:01:02-15:04:05"

// Clock returns the current time. Production code uses Now; tests pass a
// fixed function.
type Clock func() time.Time

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time.Time to UTC if it isn't already
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// LoadZone resolves an IANA zone name
func LoadZone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// FormatGatewayDateTime renders t as wall-clock time in loc using the layout
// the hosted payment page expects
func FormatGatewayDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(GatewayDateTimeLayout)
}
