package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Decode parses a sentence body - as returned by Scanner.Next, i.e.
// without '$', checksum or CRLF - into one of the typed Sentence
// values.  Unrecognised sentence types return ErrUnsupported.
func Decode(body []byte) (Sentence, error) {
	fields := strings.Split(string(body), ",")
	if len(fields) == 0 || len(fields[0]) < 3 {
		return nil, fmt.Errorf("nmea: body too short to contain a talker and sentence id")
	}
	talker := fields[0][:2]
	kind := fields[0][2:]
	fields = fields[1:]

	switch kind {
	case "GGA":
		return decodeGGA(talker, fields)
	case "GLL":
		return decodeGLL(talker, fields)
	case "GSA":
		return decodeGSA(talker, fields)
	case "GSV":
		return decodeGSV(talker, fields)
	case "RMC":
		return decodeRMC(talker, fields)
	case "VTG":
		return decodeVTG(talker, fields)
	case "TXT":
		return decodeTXT(talker, fields)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, kind)
	}
}

// ErrUnsupported is returned by Decode for a syntactically valid
// sentence whose type is not implemented.
var ErrUnsupported = fmt.Errorf("nmea: unsupported sentence type")

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// parseLatLon converts an NMEA ddmm.mmmm / dddmm.mmmm coordinate with a
// hemisphere letter into signed decimal degrees.  degreeDigits is 2 for
// latitude and 3 for longitude.
func parseLatLon(value, hemisphere string, degreeDigits int) float64 {
	if value == "" {
		return 0
	}
	if len(value) < degreeDigits {
		return 0
	}
	degrees := parseFloat(value[:degreeDigits])
	minutes := parseFloat(value[degreeDigits:])
	result := degrees + minutes/60
	if hemisphere == "S" || hemisphere == "W" {
		result = -result
	}
	return result
}

// parseTimeOfDay parses an hhmmss[.sss] field into a time.Time on the
// zero date (year 0, January 1, UTC).  The date field that some
// sentences carry is not combined with it.
func parseTimeOfDay(hhmmss string) time.Time {
	if len(hhmmss) < 6 {
		return time.Time{}
	}
	h := parseInt(hhmmss[0:2])
	m := parseInt(hhmmss[2:4])
	sec := parseFloat(hhmmss[4:])
	wholeSec := int(sec)
	nanos := int((sec - float64(wholeSec)) * 1e9)
	return time.Date(0, 1, 1, h, m, wholeSec, nanos, time.UTC)
}

func decodeGGA(talker string, f []string) (Sentence, error) {
	return &GGA{
		base:                   base{talker},
		Time:                   parseTimeOfDay(field(f, 0)),
		Latitude:               parseLatLon(field(f, 1), field(f, 2), 2),
		Longitude:              parseLatLon(field(f, 3), field(f, 4), 3),
		FixQuality:             parseInt(field(f, 5)),
		SatellitesUsed:         parseInt(field(f, 6)),
		HorizontalDilution:     parseFloat(field(f, 7)),
		Altitude:               parseFloat(field(f, 8)),
		AltitudeUnit:           firstByte(field(f, 9)),
		GeoidSeparation:        parseFloat(field(f, 10)),
		GeoidSeparationUnit:    firstByte(field(f, 11)),
		AgeOfDifferentialData:  parseFloat(field(f, 12)),
		DifferentialStationID:  field(f, 13),
	}, nil
}

func decodeGLL(talker string, f []string) (Sentence, error) {
	return &GLL{
		base:      base{talker},
		Latitude:  parseLatLon(field(f, 0), field(f, 1), 2),
		Longitude: parseLatLon(field(f, 2), field(f, 3), 3),
		Time:      parseTimeOfDay(field(f, 4)),
		Valid:     field(f, 5) == "A",
	}, nil
}

func decodeGSA(talker string, f []string) (Sentence, error) {
	g := &GSA{
		base:        base{talker},
		AutoSelection: field(f, 0) == "A",
		FixType:     parseInt(field(f, 1)),
	}
	for i := 0; i < 12; i++ {
		g.SatelliteIDs[i] = parseInt(field(f, 2+i))
	}
	g.PDOP = parseFloat(field(f, 14))
	g.HDOP = parseFloat(field(f, 15))
	g.VDOP = parseFloat(field(f, 16))
	return g, nil
}

func decodeGSV(talker string, f []string) (Sentence, error) {
	g := &GSV{
		base:             base{talker},
		TotalMessages:    parseInt(field(f, 0)),
		MessageNumber:    parseInt(field(f, 1)),
		SatellitesInView: parseInt(field(f, 2)),
	}
	for i := 3; i+3 < len(f)+1 && i < 3+4*4; i += 4 {
		if field(f, i) == "" {
			break
		}
		g.Satellites = append(g.Satellites, SatelliteInView{
			PRN:              parseInt(field(f, i)),
			ElevationDegrees: parseInt(field(f, i+1)),
			AzimuthDegrees:   parseInt(field(f, i+2)),
			SNR:              parseInt(field(f, i+3)),
		})
	}
	return g, nil
}

func decodeRMC(talker string, f []string) (Sentence, error) {
	return &RMC{
		base:              base{talker},
		Time:              parseTimeOfDay(field(f, 0)),
		Valid:             field(f, 1) == "A",
		Latitude:          parseLatLon(field(f, 2), field(f, 3), 2),
		Longitude:         parseLatLon(field(f, 4), field(f, 5), 3),
		SpeedKnots:        parseFloat(field(f, 6)),
		TrackDegrees:      parseFloat(field(f, 7)),
		MagneticVariation: parseFloat(field(f, 9)),
	}, nil
}

func decodeVTG(talker string, f []string) (Sentence, error) {
	return &VTG{
		base:                 base{talker},
		TrackDegreesTrue:     parseFloat(field(f, 0)),
		TrackDegreesMagnetic: parseFloat(field(f, 2)),
		SpeedKnots:           parseFloat(field(f, 4)),
		SpeedKPH:             parseFloat(field(f, 6)),
	}, nil
}

func decodeTXT(talker string, f []string) (Sentence, error) {
	return &TXT{
		base:          base{talker},
		TotalMessages: parseInt(field(f, 0)),
		MessageNumber: parseInt(field(f, 1)),
		Severity:      parseInt(field(f, 2)),
		Text:          field(f, 3),
	}, nil
}

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}
