// Package harvester observes the Engine's reference position and, when
// wifi/cell-id reporting is enabled, correlates it with the access
// points and cell towers currently visible and hands the combined
// Report to every registered Reporter - typically something that
// uploads it to a crowd-sourced positioning database.
package harvester

import (
	"context"
	"time"

	"github.com/ubports/location-service-sub002/units"
)

// WifiAccessPoint is one wifi access point visible at the time a Report
// was generated.
type WifiAccessPoint struct {
	BSSID             string
	SignalStrengthDBM int
}

// CellTower is one cell tower visible at the time a Report was
// generated.
type CellTower struct {
	MobileCountryCode int
	MobileNetworkCode int
	LocationAreaCode  int
	CellID            int
	SignalStrengthDBM int
}

// Report pairs a reference position with the wifi/cell environment
// observed alongside it.
type Report struct {
	Timestamp time.Time
	Position  units.PositionUpdate
	WifiAPs   []WifiAccessPoint
	Cells     []CellTower
}

// Enumerator discovers the wifi access points and cell towers currently
// visible.  Implementations typically shell out to, or bind against,
// the platform's network manager; a test implementation simply returns
// a canned list.
type Enumerator interface {
	Scan(ctx context.Context) ([]WifiAccessPoint, []CellTower, error)
}

// Reporter receives finished Reports.  Implementations are expected to
// be fast (enqueue and return); anything that genuinely blocks, like a
// network upload, should do so on its own goroutine - see
// DemultiplexingReporter, which provides exactly that for a fan-out of
// several Reporters.
type Reporter interface {
	Report(Report)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(Report)

// Report implements Reporter.
func (f ReporterFunc) Report(r Report) { f(r) }
