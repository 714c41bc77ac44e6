package sirf

import (
	"testing"

	"github.com/ubports/location-service-sub002/gnss/streamio"
)

func newScannerWithData(data []byte) *Scanner {
	ch := make(chan byte, len(data)+16)
	for _, b := range data {
		ch <- b
	}
	return NewScanner(streamio.New(ch))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame := Frame{ID: MsgSetMessageRate, Payload: []byte{0, 0x29, 1, 0, 0, 0, 0}}
	wire := Encode(frame)

	s := newScannerWithData(wire)
	got, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != frame.ID {
		t.Errorf("want id %v, got %v", frame.ID, got.ID)
	}
	if string(got.Payload) != string(frame.Payload) {
		t.Errorf("want payload %v, got %v", frame.Payload, got.Payload)
	}
}

func TestScannerRejectsBadChecksum(t *testing.T) {
	wire := Encode(Frame{ID: MsgSetMessageRate, Payload: []byte{1, 2, 3}})
	wire[len(wire)-3] ^= 0xFF // corrupt a checksum byte (before the 2-byte end marker)

	s := newScannerWithData(wire)
	_, err := s.Next()
	if err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestScannerRecoversWhenDoubleStart1ReclaimsSecondAsFrameStart(t *testing.T) {
	// A spurious second 0xA0 right after the first, matching the case
	// where the scanner must not discard the byte that could start the
	// real frame.
	good := Encode(Frame{ID: MsgGeodeticNavigationData, Payload: []byte{1, 2, 3}})
	data := append([]byte{start1}, good...)

	s := newScannerWithData(data)
	got, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != MsgGeodeticNavigationData {
		t.Errorf("unexpected frame: %+v", got)
	}
}
