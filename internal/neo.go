package internal

import "time"

// ReferenceIDLen is the fixed width of the stored NEO reference id. The
// upstream identifier is longer; only its trailing characters are kept and
// no padding is applied.
const ReferenceIDLen = 4

// NeoRecord is a single flattened near-earth-object observation, one row of
// the destination table. Velocity, distance and diameters carry the imperial
// branch of the feed payload only.
type NeoRecord struct {
	ReferenceID       string
	Name              string
	NasaJPLURL        string
	AbsoluteMagnitude float64
	Hazardous         bool
	SentryObject      bool
	DiameterMinMiles  float64
	DiameterMaxMiles  float64
	CloseApproachAt   time.Time
	VelocityMPH       float64
	MissDistanceMiles float64
	OrbitingBody      string
}

// TruncateReferenceID keeps the trailing ReferenceIDLen characters of an
// upstream identifier. Shorter identifiers are returned unchanged.
func TruncateReferenceID(id string) string {
	if len(id) <= ReferenceIDLen {
		return id
	}
	return id[len(id)-ReferenceIDLen:]
}
