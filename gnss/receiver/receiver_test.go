package receiver

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ubports/location-service-sub002/gnss/nmea"
	"github.com/ubports/location-service-sub002/gnss/streamio"
	"github.com/ubports/location-service-sub002/units"
)

func timestampedPosition(t *testing.T, lat float64) units.PositionUpdate {
	t.Helper()
	pos, err := units.NewPosition(units.Latitude(lat), 0)
	if err != nil {
		t.Fatalf("unexpected error building position: %v", err)
	}
	return units.NewUpdate(pos, time.Now())
}

func newTestReceiver(protocol Protocol) *Receiver {
	return New(Config{Protocol: protocol}, slog.Default(), nil)
}

func TestDecodeNMEAPublishesPosition(t *testing.T) {
	r := newTestReceiver(ProtocolNMEA)

	frame := nmea.Encode("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	ch := make(chan byte, len(frame))
	for _, b := range frame {
		ch <- b
	}
	source := streamio.New(ch)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.decodeNMEA(ctx, source) }()

	select {
	case update := <-r.Updates.Position:
		if update.Value.Latitude <= 48 || update.Value.Latitude >= 49 {
			t.Errorf("unexpected latitude: %v", update.Value.Latitude)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for position update")
	}
	cancel()
	<-errCh
}

func TestApplyNMEARejectsInvalidRMCFix(t *testing.T) {
	r := newTestReceiver(ProtocolNMEA)

	sentence, err := nmea.Decode([]byte("GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	r.applyNMEA(sentence)

	select {
	case <-r.Updates.Position:
		t.Fatal("an invalid RMC fix should not publish a position")
	default:
	}
}

func TestPublishPositionDropsOldestWhenFull(t *testing.T) {
	u := newUpdates()
	// Fill the channel to capacity, then publish one more - the oldest
	// entry should be evicted rather than the call blocking.
	for i := 0; i < cap(u.Position); i++ {
		u.publishPosition(timestampedPosition(t, float64(i)))
	}
	const marker = 45.0
	u.publishPosition(timestampedPosition(t, marker))

	var last float64
	for {
		select {
		case v := <-u.Position:
			last = float64(v.Value.Latitude)
			continue
		default:
		}
		break
	}
	if last != marker {
		t.Errorf("want newest update (%v) to survive, got %v", marker, last)
	}
}
