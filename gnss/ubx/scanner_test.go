package ubx

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
	frame := Frame{Class: ClassCFG, ID: CFGMSG, Payload: []byte{0x01, 0x07, 0x01}}
	wire := Encode(frame)

	s := newScannerWithData(wire)
	got, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Class != frame.Class || got.ID != frame.ID {
		t.Errorf("want class/id %v/%v, got %v/%v", frame.Class, frame.ID, got.Class, got.ID)
	}
	if string(got.Payload) != string(frame.Payload) {
		t.Errorf("want payload %v, got %v", frame.Payload, got.Payload)
	}
}

func TestScannerRejectsBadChecksum(t *testing.T) {
	wire := Encode(Frame{Class: ClassCFG, ID: CFGMSG, Payload: []byte{1, 2, 3}})
	wire[len(wire)-1] ^= 0xFF // corrupt checksum byte

	s := newScannerWithData(wire)
	_, err := s.Next()
	if err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestScannerRecoversWhenDoubleSync1ReclaimsSecondAsFrameStart(t *testing.T) {
	// A spurious second 0xB5 right after the first, matching the case
	// where the scanner must not discard the byte that could start the
	// real frame.
	good := Encode(Frame{Class: ClassNAV, ID: NAVPVT, Payload: []byte{1, 2, 3, 4}})
	data := append([]byte{sync1}, good...)

	s := newScannerWithData(data)
	got, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Class != ClassNAV || got.ID != NAVPVT {
		t.Errorf("unexpected frame: %+v", got)
	}
}

func TestDecodeCFGGNSSRoundTripsThroughScanner(t *testing.T) {
	wire := EncodeCFGGNSS(0x00, true)
	s := newScannerWithData(wire)
	got, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Class != ClassCFG || got.ID != CFGGNSS {
		t.Errorf("unexpected frame: %+v", got)
	}
}
