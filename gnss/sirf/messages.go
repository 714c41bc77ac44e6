package sirf

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ubports/location-service-sub002/units"
)

// GeodeticNavigationData is the decoded payload of message id 0x29,
// SiRF's richest navigation message.
type GeodeticNavigationData struct {
	Time          time.Time
	Latitude      units.Latitude
	Longitude     units.Longitude
	AltitudeMSL   units.Altitude
	Heading       units.Heading
	Speed         units.Velocity
	SatellitesUsed byte
	HorizontalError float64 // metres, estimated
}

// DecodeGeodeticNavigationData parses a message id 0x29 payload (91
// bytes).
func DecodeGeodeticNavigationData(payload []byte) (GeodeticNavigationData, error) {
	if len(payload) < 91 {
		return GeodeticNavigationData{}, fmt.Errorf("sirf: geodetic navigation data payload too short: %d bytes", len(payload))
	}
	be := binary.BigEndian

	year := int(be.Uint16(payload[11:13]))
	month := int(payload[13])
	day := int(payload[14])
	hour := int(payload[15])
	min := int(payload[16])
	secHundredths := int(be.Uint16(payload[17:19]))

	lat := float64(int32(be.Uint32(payload[23:27]))) * 1e-7
	lon := float64(int32(be.Uint32(payload[27:31]))) * 1e-7
	altMSL := float64(int32(be.Uint32(payload[35:39]))) / 100

	headingRaw := float64(be.Uint16(payload[43:45])) / 100
	speedRaw := float64(be.Uint16(payload[41:43])) / 100

	satsUsed := payload[88]
	ehpe := float64(be.Uint32(payload[50:54])) / 100

	latitude, err := units.NewLatitude(lat)
	if err != nil {
		return GeodeticNavigationData{}, err
	}
	longitude, err := units.NewLongitude(lon)
	if err != nil {
		return GeodeticNavigationData{}, err
	}
	heading, err := units.NewHeading(headingRaw)
	if err != nil {
		heading = 0
	}
	speed, err := units.NewVelocity(speedRaw)
	if err != nil {
		speed = 0
	}

	return GeodeticNavigationData{
		Time:            time.Date(year, time.Month(month), day, hour, min, secHundredths/100, (secHundredths%100)*10_000_000, time.UTC),
		Latitude:        latitude,
		Longitude:       longitude,
		AltitudeMSL:     units.Altitude(altMSL),
		Heading:         heading,
		Speed:           speed,
		SatellitesUsed:  satsUsed,
		HorizontalError: ehpe,
	}, nil
}

// EncodeInitializeDataSource builds a message id 0x80 frame seeding the
// receiver with an approximate position and clock drift, so it can
// acquire a fix faster (a cold receiver otherwise has to search the
// full almanac).
func EncodeInitializeDataSource(lat units.Latitude, lon units.Longitude, altMetres float64, clockDriftHz int32, channels byte) []byte {
	payload := make([]byte, 18)
	be := binary.BigEndian
	be.PutUint32(payload[0:4], uint32(int32(float64(lat)*1e7)))
	be.PutUint32(payload[4:8], uint32(int32(float64(lon)*1e7)))
	be.PutUint32(payload[8:12], uint32(int32(altMetres*100)))
	be.PutUint32(payload[12:16], uint32(clockDriftHz))
	payload[17] = channels
	return Encode(Frame{ID: MsgInitializeDataSource, Payload: payload})
}

// EncodeSetMessageRate builds a message id 0xA6 frame asking the
// receiver to send messageID every rate seconds (0 disables it).
func EncodeSetMessageRate(messageID, rate byte) []byte {
	payload := []byte{0x00, messageID, rate, 0, 0, 0, 0}
	return Encode(Frame{ID: MsgSetMessageRate, Payload: payload})
}

// EncodeSwitchToNMEA builds a message id 0x81 frame that switches the
// receiver from SiRF Binary to plain NMEA 0183 at the given baud rate -
// a one-way transition the caller must be prepared for.
func EncodeSwitchToNMEA(baud uint32) []byte {
	payload := make([]byte, 25)
	payload[0] = 0x02 // mode: enable GGA, GSA, GSV, RMC, VTG at default rates
	payload[1] = 1    // GGA rate
	payload[3] = 1    // GSA rate
	payload[5] = 1    // GSV rate
	payload[7] = 1    // RMC rate
	payload[9] = 1    // VTG rate
	binary.BigEndian.PutUint32(payload[21:25], baud)
	return Encode(Frame{ID: MsgSwitchToNMEA, Payload: payload})
}
