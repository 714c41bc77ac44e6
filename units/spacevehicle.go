package units

// GNSSID identifies which satellite constellation a space vehicle belongs
// to.
type GNSSID int

const (
	GNSSUnknown GNSSID = iota
	GNSSGPS
	GNSSGLONASS
	GNSSGalileo
	GNSSBeiDou
	GNSSSBAS
	GNSSQZSS
)

func (id GNSSID) String() string {
	switch id {
	case GNSSGPS:
		return "GPS"
	case GNSSGLONASS:
		return "GLONASS"
	case GNSSGalileo:
		return "Galileo"
	case GNSSBeiDou:
		return "BeiDou"
	case GNSSSBAS:
		return "SBAS"
	case GNSSQZSS:
		return "QZSS"
	default:
		return "unknown"
	}
}

// SpaceVehicleKey uniquely identifies a satellite observation: a
// constellation and a satellite number within it.
type SpaceVehicleKey struct {
	GNSSID        GNSSID
	SatelliteID   int
}

// SpaceVehicle is an observation of a single satellite.
type SpaceVehicle struct {
	Key SpaceVehicleKey

	// SignalToNoise is in dB-Hz.  Zero means "not tracked".
	SignalToNoise float64

	// Elevation is in degrees, 0-90.
	Elevation float64

	// Azimuth is in degrees, 0-359.
	Azimuth float64

	UsedInFix    bool
	HasEphemeris bool
	HasAlmanac   bool
}

// Equal compares every field of two SpaceVehicle observations.
func (sv SpaceVehicle) Equal(other SpaceVehicle) bool {
	return sv.Key == other.Key &&
		sv.SignalToNoise == other.SignalToNoise &&
		sv.Elevation == other.Elevation &&
		sv.Azimuth == other.Azimuth &&
		sv.UsedInFix == other.UsedInFix &&
		sv.HasEphemeris == other.HasEphemeris &&
		sv.HasAlmanac == other.HasAlmanac
}
