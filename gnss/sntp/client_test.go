package sntp

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"
)

func serveOneSNTPResponse(t *testing.T, txTime time.Time) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		defer conn.Close()
		buf := make([]byte, packetSizeBytes)
		_, addr, err := conn.ReadFrom(buf)
		if err != nil {
			return
		}
		secs := uint32(txTime.Unix() + ntpEpochOffset)
		resp := packet{
			Settings:   liNoWarning<<6 | vn3<<3 | modeServer,
			Stratum:    1,
			TxTimeSec:  secs,
			TxTimeFrac: 0,
		}
		var out [packetSizeBytes]byte
		w := newFixedWriter(out[:])
		_ = binary.Write(w, binary.BigEndian, &resp)
		_, _ = conn.WriteTo(out[:], addr)
	}()

	return conn.LocalAddr().String()
}

// fixedWriter adapts a fixed byte slice to io.Writer for building the
// fake server's response without importing bytes.Buffer into the test's
// already-short import list.
type fixedWriter struct {
	buf []byte
	pos int
}

func newFixedWriter(buf []byte) *fixedWriter { return &fixedWriter{buf: buf} }

func (w *fixedWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func TestQueryReturnsServerTime(t *testing.T) {
	want := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	addr := serveOneSNTPResponse(t, want)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := Query(ctx, addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Time.Unix() != want.Unix() {
		t.Errorf("want %v, got %v", want, result.Time)
	}
	if result.Stratum != 1 {
		t.Errorf("want stratum 1, got %v", result.Stratum)
	}
}

func TestQueryTimesOutWithNoServer(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := conn.LocalAddr().String()
	conn.Close() // nothing is listening, so the exchange never completes

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = Query(ctx, addr)
	if err == nil {
		t.Fatal("expected an error when no server responds")
	}
}
