// Package units defines the physical quantities that flow between GNSS
// receivers, positioning providers and client sessions: positions,
// headings, velocities and the satellites that contribute to a fix.
//
// Each quantity is a distinct Go type so that, for example, a Heading
// value in degrees can't be added to a Velocity value in m/s by mistake -
// the compiler rejects it.  This mirrors the strongly-typed units used
// throughout the positioning engine.
package units

import (
	"errors"
	"fmt"
)

// Latitude is a latitude in decimal degrees, in the range [-90, 90].
type Latitude float64

// Longitude is a longitude in decimal degrees, in the range [-180, 180].
type Longitude float64

// Altitude is a height above mean sea level in metres.  Altitude is
// unconstrained - negative values (below sea level) are legal.
type Altitude float64

// Accuracy describes the uncertainty of a Position.  Either field may be
// absent; HasHorizontal and HasVertical report which are present.
type Accuracy struct {
	horizontal       float64
	vertical         float64
	hasHorizontal    bool
	hasVertical      bool
}

// NewAccuracy creates an Accuracy with both horizontal and vertical
// components.
func NewAccuracy(horizontalMetres, verticalMetres float64) Accuracy {
	return Accuracy{
		horizontal:    horizontalMetres,
		vertical:      verticalMetres,
		hasHorizontal: true,
		hasVertical:   true,
	}
}

// NewHorizontalAccuracy creates an Accuracy with only a horizontal
// component set.
func NewHorizontalAccuracy(horizontalMetres float64) Accuracy {
	return Accuracy{horizontal: horizontalMetres, hasHorizontal: true}
}

// HasHorizontal reports whether the horizontal accuracy is present.
func (a Accuracy) HasHorizontal() bool { return a.hasHorizontal }

// HasVertical reports whether the vertical accuracy is present.
func (a Accuracy) HasVertical() bool { return a.hasVertical }

// Horizontal returns the horizontal accuracy in metres.  The result is
// meaningless if HasHorizontal is false.
func (a Accuracy) Horizontal() float64 { return a.horizontal }

// Vertical returns the vertical accuracy in metres.  The result is
// meaningless if HasVertical is false.
func (a Accuracy) Vertical() float64 { return a.vertical }

// Equal compares two Accuracy values, including which components are set.
func (a Accuracy) Equal(other Accuracy) bool {
	if a.hasHorizontal != other.hasHorizontal || a.hasVertical != other.hasVertical {
		return false
	}
	if a.hasHorizontal && a.horizontal != other.horizontal {
		return false
	}
	if a.hasVertical && a.vertical != other.vertical {
		return false
	}
	return true
}

// Position is a point on (or above/below) the earth's surface.  Altitude
// and Accuracy are both optional - HasAltitude and HasAccuracy report
// which are present.
type Position struct {
	Latitude  Latitude
	Longitude Longitude

	altitude    Altitude
	hasAltitude bool

	accuracy    Accuracy
	hasAccuracy bool
}

// ErrLatitudeOutOfRange is returned when a latitude outside [-90, 90] is
// supplied to NewPosition.
var ErrLatitudeOutOfRange = errors.New("units: latitude out of range")

// ErrLongitudeOutOfRange is returned when a longitude outside [-180, 180]
// is supplied to NewPosition.
var ErrLongitudeOutOfRange = errors.New("units: longitude out of range")

// NewLatitude validates a latitude in decimal degrees.  Codecs that
// decode a latitude from the wire - NMEA, UBX, SiRF - use this directly
// so that an out-of-range value is rejected at the point it enters the
// system, not later when it's assembled into a Position.
func NewLatitude(degrees float64) (Latitude, error) {
	if degrees < -90 || degrees > 90 {
		return 0, fmt.Errorf("%w: %v", ErrLatitudeOutOfRange, degrees)
	}
	return Latitude(degrees), nil
}

// NewLongitude validates a longitude in decimal degrees.
func NewLongitude(degrees float64) (Longitude, error) {
	if degrees < -180 || degrees > 180 {
		return 0, fmt.Errorf("%w: %v", ErrLongitudeOutOfRange, degrees)
	}
	return Longitude(degrees), nil
}

// NewPosition creates a Position with no altitude and no accuracy.  It
// fails if the latitude or longitude is out of range.
func NewPosition(lat Latitude, lon Longitude) (Position, error) {
	return newPosition(lat, lon)
}

func newPosition(lat Latitude, lon Longitude) (Position, error) {
	if lat < -90 || lat > 90 {
		return Position{}, fmt.Errorf("%w: %v", ErrLatitudeOutOfRange, lat)
	}
	if lon < -180 || lon > 180 {
		return Position{}, fmt.Errorf("%w: %v", ErrLongitudeOutOfRange, lon)
	}
	return Position{Latitude: lat, Longitude: lon}, nil
}

// NewPositionWithAltitude creates a Position with an altitude but no
// accuracy.
func NewPositionWithAltitude(lat Latitude, lon Longitude, alt Altitude) (Position, error) {
	p, err := newPosition(lat, lon)
	if err != nil {
		return Position{}, err
	}
	p.altitude = alt
	p.hasAltitude = true
	return p, nil
}

// WithAccuracy returns a copy of the Position with the given Accuracy
// attached.
func (p Position) WithAccuracy(a Accuracy) Position {
	p.accuracy = a
	p.hasAccuracy = true
	return p
}

// WithAltitude returns a copy of the Position with the given altitude
// attached.
func (p Position) WithAltitude(a Altitude) Position {
	p.altitude = a
	p.hasAltitude = true
	return p
}

// HasAltitude reports whether the Position carries an altitude.
func (p Position) HasAltitude() bool { return p.hasAltitude }

// Altitude returns the altitude in metres.  The result is meaningless if
// HasAltitude is false.
func (p Position) Altitude() Altitude { return p.altitude }

// HasAccuracy reports whether the Position carries an accuracy record.
func (p Position) HasAccuracy() bool { return p.hasAccuracy }

// Accuracy returns the accuracy record.  The result is meaningless if
// HasAccuracy is false.
func (p Position) Accuracy() Accuracy { return p.accuracy }

// Equal compares every present field of two Positions, including
// accuracy.
func (p Position) Equal(other Position) bool {
	if p.Latitude != other.Latitude || p.Longitude != other.Longitude {
		return false
	}
	if p.hasAltitude != other.hasAltitude {
		return false
	}
	if p.hasAltitude && p.altitude != other.altitude {
		return false
	}
	if p.hasAccuracy != other.hasAccuracy {
		return false
	}
	if p.hasAccuracy && !p.accuracy.Equal(other.accuracy) {
		return false
	}
	return true
}

func (p Position) String() string {
	s := fmt.Sprintf("%.6f,%.6f", float64(p.Latitude), float64(p.Longitude))
	if p.hasAltitude {
		s += fmt.Sprintf(",alt=%.1fm", float64(p.altitude))
	}
	if p.hasAccuracy {
		if p.accuracy.hasHorizontal {
			s += fmt.Sprintf(",h_acc=%.1fm", p.accuracy.horizontal)
		}
		if p.accuracy.hasVertical {
			s += fmt.Sprintf(",v_acc=%.1fm", p.accuracy.vertical)
		}
	}
	return s
}
