package nmea

import (
	"testing"

	"github.com/ubports/location-service-sub002/gnss/streamio"
)

func newScannerWithData(data []byte) (*Scanner, chan byte) {
	ch := make(chan byte, len(data)+16)
	for _, b := range data {
		ch <- b
	}
	return NewScanner(streamio.New(ch)), ch
}

func TestScannerReadsValidSentence(t *testing.T) {
	frame := Encode("GPGLL,4916.45,N,12311.12,W,225444,A")
	s, _ := newScannerWithData(frame)

	body, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "GPGLL,4916.45,N,12311.12,W,225444,A" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestScannerRejectsBadChecksum(t *testing.T) {
	data := []byte("$GPGLL,garbage*00\r\n")
	s, _ := newScannerWithData(data)

	_, err := s.Next()
	if err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestScannerRecoversFromGarbageBeforeStart(t *testing.T) {
	good := Encode("GPGLL,4916.45,N,12311.12,W,225444,A")
	data := append([]byte("garbage before frame"), good...)
	s, _ := newScannerWithData(data)

	body, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "GPGLL,4916.45,N,12311.12,W,225444,A" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestScannerRecoversWhenSecondFrameStartsImmediatelyAfterBrokenOne(t *testing.T) {
	// A frame missing its CRLF, immediately followed by a valid frame
	// starting with '$'.  The scanner must not swallow the '$' that
	// starts the second, valid frame.
	broken := []byte("$GPGLL,bad*00")
	good := Encode("GPGLL,4916.45,N,12311.12,W,225444,A")
	data := append(broken, good...)
	s, _ := newScannerWithData(data)

	body, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "GPGLL,4916.45,N,12311.12,W,225444,A" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestDecodeGGA(t *testing.T) {
	sentence, err := Decode([]byte("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gga, ok := sentence.(*GGA)
	if !ok {
		t.Fatalf("want *GGA, got %T", sentence)
	}
	if gga.Talker() != "GP" {
		t.Errorf("want talker GP, got %q", gga.Talker())
	}
	if gga.FixQuality != 1 || gga.SatellitesUsed != 8 {
		t.Errorf("unexpected fix quality/satellite count: %+v", gga)
	}
	if gga.Latitude <= 48 || gga.Latitude >= 49 {
		t.Errorf("unexpected latitude: %v", gga.Latitude)
	}
}

func TestDecodeUnsupportedSentence(t *testing.T) {
	_, err := Decode([]byte("GPZZZ,1,2,3"))
	if err == nil {
		t.Fatal("expected error for unsupported sentence type")
	}
}
