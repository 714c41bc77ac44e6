package ubx

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ubports/location-service-sub002/units"
)

// NavPVT is the decoded payload of a NAV-PVT message: the receiver's
// current navigation solution.
type NavPVT struct {
	Time            time.Time
	FixType         byte
	GNSSFixOK       bool
	Longitude       units.Longitude
	Latitude        units.Latitude
	HeightMSL       units.Altitude
	HorizontalAcc   float64 // metres
	VerticalAcc     float64 // metres
	HeadingMotion   units.Heading
	GroundSpeed     units.Velocity
	NumSatellites   byte
}

// DecodeNavPVT parses a NAV-PVT payload (92 bytes in protocol versions
// this driver targets).
func DecodeNavPVT(payload []byte) (NavPVT, error) {
	if len(payload) < 92 {
		return NavPVT{}, fmt.Errorf("ubx: NAV-PVT payload too short: %d bytes", len(payload))
	}
	le := binary.LittleEndian

	year := int(le.Uint16(payload[4:6]))
	month := int(payload[6])
	day := int(payload[7])
	hour := int(payload[8])
	min := int(payload[9])
	sec := int(payload[10])
	nanos := int(int32(le.Uint32(payload[16:20])))

	fixType := payload[20]
	flags := payload[21]

	lon := float64(int32(le.Uint32(payload[24:28]))) * 1e-7
	lat := float64(int32(le.Uint32(payload[28:32]))) * 1e-7
	heightMSL := float64(int32(le.Uint32(payload[36:40]))) / 1000
	hAcc := float64(le.Uint32(payload[40:44])) / 1000
	vAcc := float64(le.Uint32(payload[44:48])) / 1000
	groundSpeed := float64(int32(le.Uint32(payload[60:64]))) / 1000
	heading := float64(int32(le.Uint32(payload[64:68]))) * 1e-5
	numSV := payload[23]

	latitude, err := units.NewLatitude(lat)
	if err != nil {
		return NavPVT{}, err
	}
	longitude, err := units.NewLongitude(lon)
	if err != nil {
		return NavPVT{}, err
	}
	if heading < 0 {
		heading += 360
	}
	headingUnit, err := units.NewHeading(heading)
	if err != nil {
		headingUnit = 0
	}
	velocity, err := units.NewVelocity(absFloat(groundSpeed))
	if err != nil {
		velocity = 0
	}

	return NavPVT{
		Time:          time.Date(year, time.Month(month), day, hour, min, sec, nanos, time.UTC),
		FixType:       fixType,
		GNSSFixOK:     flags&0x01 != 0,
		Longitude:     longitude,
		Latitude:      latitude,
		HeightMSL:     units.Altitude(heightMSL),
		HorizontalAcc: hAcc,
		VerticalAcc:   vAcc,
		HeadingMotion: headingUnit,
		GroundSpeed:   velocity,
		NumSatellites: numSV,
	}, nil
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// NavSatEntry describes one space vehicle as reported by NAV-SAT.
type NavSatEntry struct {
	GNSSID     byte
	SvID       byte
	CNO        byte // carrier-to-noise ratio, dB-Hz
	Elevation  int8
	Azimuth    int16
	UsedInFix  bool
}

// DecodeNavSat parses a NAV-SAT payload into its per-satellite blocks.
func DecodeNavSat(payload []byte) ([]NavSatEntry, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("ubx: NAV-SAT payload too short: %d bytes", len(payload))
	}
	le := binary.LittleEndian
	numSvs := int(payload[5])
	const blockSize = 12
	if len(payload) < 8+numSvs*blockSize {
		return nil, fmt.Errorf("ubx: NAV-SAT payload truncated for %d satellites", numSvs)
	}
	out := make([]NavSatEntry, 0, numSvs)
	for i := 0; i < numSvs; i++ {
		block := payload[8+i*blockSize : 8+(i+1)*blockSize]
		flags := le.Uint32(block[8:12])
		out = append(out, NavSatEntry{
			GNSSID:    block[0],
			SvID:      block[1],
			CNO:       block[2],
			Elevation: int8(block[3]),
			Azimuth:   int16(le.Uint16(block[4:6])),
			UsedInFix: flags&0x08 != 0,
		})
	}
	return out, nil
}

// IsAck reports whether f is an ACK-ACK for the given class/id pair.
func IsAck(f Frame, class, id byte) bool {
	return f.Class == ClassACK && f.ID == ACKACK && len(f.Payload) >= 2 &&
		f.Payload[0] == class && f.Payload[1] == id
}

// IsNak reports whether f is an ACK-NAK for the given class/id pair.
func IsNak(f Frame, class, id byte) bool {
	return f.Class == ClassACK && f.ID == ACKNAK && len(f.Payload) >= 2 &&
		f.Payload[0] == class && f.Payload[1] == id
}

// EncodeCFGMSG builds a CFG-MSG frame asking the receiver to send
// message msgClass/msgID every rate navigation solutions on the port
// it was received on.
func EncodeCFGMSG(msgClass, msgID, rate byte) []byte {
	return Encode(Frame{Class: ClassCFG, ID: CFGMSG, Payload: []byte{msgClass, msgID, rate}})
}

// EncodeCFGRST builds a CFG-RST frame.  navBBRMask selects which parts
// of the receiver's non-volatile memory to clear; resetMode selects the
// kind of reset to perform.
func EncodeCFGRST(navBBRMask uint16, resetMode byte) []byte {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], navBBRMask)
	payload[2] = resetMode
	return Encode(Frame{Class: ClassCFG, ID: CFGRST, Payload: payload})
}

// EncodeCFGGNSS builds a minimal single-block CFG-GNSS frame enabling
// or disabling one GNSS constellation.
func EncodeCFGGNSS(gnssID byte, enable bool) []byte {
	var flags uint32
	if enable {
		flags = 0x01
	}
	block := make([]byte, 8)
	block[0] = gnssID
	block[1] = 0  // resTrkCh, receiver default
	block[2] = 0xFF // maxTrkCh, receiver default
	block[3] = 0  // reserved1
	binary.LittleEndian.PutUint32(block[4:8], flags)

	payload := make([]byte, 4+len(block))
	payload[0] = 0 // msgVer
	payload[1] = 0 // numTrkChHw, receiver default
	payload[2] = 0xFF
	payload[3] = 1 // numConfigBlocks
	copy(payload[4:], block)

	return Encode(Frame{Class: ClassCFG, ID: CFGGNSS, Payload: payload})
}
