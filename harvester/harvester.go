package harvester

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/goblimey/go-tools/clock"

	"github.com/ubports/location-service-sub002/event"
	"github.com/ubports/location-service-sub002/units"
)

// defaultScanTimeout bounds how long a single Enumerator.Scan may run
// before the Harvester gives up on correlating it with the reference
// position that triggered it.
const defaultScanTimeout = 5 * time.Second

// Harvester subscribes to an event.Bus for reference position updates
// and, while wifi/cell-id reporting is enabled, correlates each one
// with the wifi access points and cell towers an Enumerator currently
// sees and hands the result to a Reporter - normally a
// DemultiplexingReporter fanning out to one or more upload backends.
//
// Harvester implements event.Subscriber, so it is driven entirely by
// whatever posts events to the Bus it was given (the Engine, for the
// events this package cares about); it does not poll.
type Harvester struct {
	enumerator  Enumerator
	reporter    Reporter
	scanTimeout time.Duration
	logger      *log.Logger
	clock       clock.Clock

	mutex           sync.Mutex
	running         bool
	enabled         bool
	lastScanAttempt time.Time
}

// New creates a Harvester that asks enumerator for the wifi/cell
// environment and hands the combined Report to reporter.  It starts
// disabled: nothing is reported until a
// event.TypeWifiAndCellIDReportingStateChanged event with payload true
// arrives on the Bus it is subscribed to.
func New(enumerator Enumerator, reporter Reporter, logger *log.Logger) *Harvester {
	return &Harvester{
		enumerator:  enumerator,
		reporter:    reporter,
		scanTimeout: defaultScanTimeout,
		logger:      logger,
		clock:       clock.NewSystemClock(),
		running:     true,
	}
}

// Start makes the Harvester act on reference-position updates again
// after Stop. Harvesters start already running; Start only matters
// after a prior Stop.
func (h *Harvester) Start() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.running = true
}

// Stop makes the Harvester silently discard reference-position updates
// until Start is called again, independent of the reporting-state flag
// toggled by event.TypeWifiAndCellIDReportingStateChanged: a stopped
// Harvester ignores reference positions even if reporting is enabled.
func (h *Harvester) Stop() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.running = false
}

// WithClock overrides the Harvester's notion of "now", used only to
// time-stamp LastScanAttempt for diagnostics. Tests substitute a fake
// clock so they don't depend on wall-clock time.
func (h *Harvester) WithClock(c clock.Clock) *Harvester {
	h.clock = c
	return h
}

// LastScanAttempt reports when the Harvester last asked its Enumerator
// to scan, whether or not that scan succeeded. The zero time means no
// scan has been attempted yet.
func (h *Harvester) LastScanAttempt() time.Time {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.lastScanAttempt
}

// OnEvent implements event.Subscriber.
func (h *Harvester) OnEvent(e event.Event) {
	switch e.Type {
	case event.TypeWifiAndCellIDReportingStateChanged:
		enabled, ok := e.Payload.(bool)
		if !ok {
			return
		}
		h.mutex.Lock()
		h.enabled = enabled
		h.mutex.Unlock()

	case event.TypeReferencePositionUpdated:
		update, ok := e.Payload.(units.PositionUpdate)
		if !ok {
			return
		}
		h.handleReferencePosition(update)
	}
}

func (h *Harvester) handleReferencePosition(update units.PositionUpdate) {
	h.mutex.Lock()
	running := h.running
	enabled := h.enabled
	h.mutex.Unlock()
	if !running || !enabled {
		return
	}

	h.mutex.Lock()
	h.lastScanAttempt = h.clock.Now()
	h.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.scanTimeout)
	defer cancel()

	wifiAPs, cells, err := h.enumerator.Scan(ctx)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("harvester: wifi/cell scan failed: %v", err)
		}
		return
	}

	h.reporter.Report(Report{
		Timestamp: update.Timestamp,
		Position:  update,
		WifiAPs:   wifiAPs,
		Cells:     cells,
	})
}

var _ event.Subscriber = (*Harvester)(nil)
