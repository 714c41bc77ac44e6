// Package nmea decodes and encodes NMEA 0183 sentences - the ASCII,
// comma-delimited, XOR-checksummed protocol spoken by the great
// majority of consumer GNSS receivers.
//
// Field names and the set of supported sentences follow the de facto
// NMEA conventions (GGA fix data, GLL geographic position, GSA DOP and
// active satellites, GSV satellites in view, RMC recommended minimum,
// VTG track and speed, TXT free text).
package nmea

import "time"

// Sentence is the common interface implemented by every decoded NMEA
// sentence type.
type Sentence interface {
	// Talker is the two-letter talker id, e.g. "GP", "GN", "GL".
	Talker() string
}

type base struct {
	TalkerID string
}

// Talker returns the sentence's talker id.
func (b base) Talker() string { return b.TalkerID }

// GGA is the Global Positioning System Fix Data sentence.
type GGA struct {
	base
	Time                   time.Time
	Latitude               float64
	Longitude              float64
	FixQuality             int
	SatellitesUsed         int
	HorizontalDilution     float64
	Altitude               float64
	AltitudeUnit           byte
	GeoidSeparation        float64
	GeoidSeparationUnit    byte
	AgeOfDifferentialData  float64
	DifferentialStationID  string
}

// GLL is the Geographic Position - Latitude/Longitude sentence.
type GLL struct {
	base
	Latitude  float64
	Longitude float64
	Time      time.Time
	Valid     bool
}

// GSA is the GNSS DOP and Active Satellites sentence.
type GSA struct {
	base
	AutoSelection    bool
	FixType          int // 1 = no fix, 2 = 2D, 3 = 3D
	SatelliteIDs     [12]int
	PDOP, HDOP, VDOP float64
}

// GSV is the GNSS Satellites in View sentence.
type GSV struct {
	base
	TotalMessages   int
	MessageNumber   int
	SatellitesInView int
	Satellites      []SatelliteInView
}

// SatelliteInView is one of the up to four satellites reported by a
// single GSV sentence.
type SatelliteInView struct {
	PRN              int
	ElevationDegrees int
	AzimuthDegrees   int
	SNR              int // 0 means "not tracking"
}

// RMC is the Recommended Minimum Navigation Information sentence.
type RMC struct {
	base
	Time             time.Time
	Valid            bool
	Latitude         float64
	Longitude        float64
	SpeedKnots       float64
	TrackDegrees     float64
	MagneticVariation float64
}

// VTG is the Track Made Good and Ground Speed sentence.
type VTG struct {
	base
	TrackDegreesTrue     float64
	TrackDegreesMagnetic float64
	SpeedKnots           float64
	SpeedKPH             float64
}

// TXT is a free-text informational sentence.
type TXT struct {
	base
	TotalMessages int
	MessageNumber int
	Severity      int
	Text          string
}
