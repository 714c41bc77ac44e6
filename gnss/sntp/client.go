// Package sntp implements a minimal SNTPv3 client: a single
// request/response exchange used to seed the GNSS receiver's clock, and
// through it its almanac search, with a coarse but trustworthy time
// when no fix is yet available.
package sntp

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

const packetSizeBytes = 48

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01).
const ntpEpochOffset = 2208988800

const (
	liNoWarning = 0
	vn3         = 3
	modeClient  = 3
	modeServer  = 4
)

// packet is the wire layout of an NTPv3/v4 packet; only the fields this
// client needs to set or read are named distinctly, the rest round-trip
// as opaque reserved words.
type packet struct {
	Settings       uint8
	Stratum        uint8
	Poll           int8
	Precision      int8
	RootDelay      uint32
	RootDispersion uint32
	ReferenceID    uint32
	RefTimeSec     uint32
	RefTimeFrac    uint32
	OrigTimeSec    uint32
	OrigTimeFrac   uint32
	RxTimeSec      uint32
	RxTimeFrac     uint32
	TxTimeSec      uint32
	TxTimeFrac     uint32
}

// Result is the outcome of a successful Query.
type Result struct {
	// Time is the server's transmit timestamp, converted to the Unix
	// epoch.
	Time time.Time
	// Stratum is the server's distance from a reference clock; 1 means
	// a reference clock itself.
	Stratum uint8
}

// Query performs a single SNTP request/response exchange against addr
// (host:port, typically port 123) and returns the server's time.  It
// fails if ctx is done or the deadline it carries elapses before a
// response arrives.
func Query(ctx context.Context, addr string) (Result, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return Result{}, fmt.Errorf("sntp: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return Result{}, fmt.Errorf("sntp: set deadline: %w", err)
		}
	}

	// Cancelling ctx interrupts a pending write or read by moving the
	// deadline to now.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetDeadline(time.Now())
		case <-stop:
		}
	}()

	req := packet{Settings: liNoWarning<<6 | vn3<<3 | modeClient}

	if err := binary.Write(conn, binary.BigEndian, &req); err != nil {
		return Result{}, fmt.Errorf("sntp: write request: %w", err)
	}

	var resp packet
	if err := binary.Read(conn, binary.BigEndian, &resp); err != nil {
		return Result{}, fmt.Errorf("sntp: read response: %w", err)
	}

	mode := resp.Settings & 0x07
	if mode != modeServer {
		return Result{}, fmt.Errorf("sntp: response has mode %d, want %d", mode, modeServer)
	}
	if resp.TxTimeSec == 0 {
		return Result{}, fmt.Errorf("sntp: response carries no transmit timestamp")
	}

	secs := int64(resp.TxTimeSec) - ntpEpochOffset
	nanos := int64(float64(resp.TxTimeFrac) / (1 << 32) * 1e9)

	return Result{
		Time:    time.Unix(secs, nanos).UTC(),
		Stratum: resp.Stratum,
	}, nil
}
