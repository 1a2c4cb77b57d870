package domain

import "fmt"

// Zone is the geographic zone an expedition targets. Shipments must target
// one of the four named zones.
type Zone string

const (
	ZoneNorth Zone = "north"
	ZoneSouth Zone = "south"
	ZoneEast  Zone = "east"
	ZoneWest  Zone = "west"
)

// Zones lists every valid zone in declaration order.
func Zones() []Zone {
	return []Zone{ZoneNorth, ZoneSouth, ZoneEast, ZoneWest}
}

// ParseZone validates a submitted zone value.
func ParseZone(s string) (Zone, error) {
	switch Zone(s) {
	case ZoneNorth, ZoneSouth, ZoneEast, ZoneWest:
		return Zone(s), nil
	}
	return "", fmt.Errorf("invalid zone %q", s)
}
