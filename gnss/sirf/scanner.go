package sirf

import (
	"fmt"

	"github.com/ubports/location-service-sub002/gnss/streamio"
)

type scanState int

const (
	stateStart1 scanState = iota
	stateStart2
	stateLen1
	stateLen2
	statePayload
	stateCk1
	stateCk2
	stateEnd1
	stateEnd2
)

const maxPayloadLength = 2048

// Scanner reads a byte stream and emits decoded, checksum-verified SiRF
// Frames.  Any byte that cannot advance the current state returns the
// scanner to stateStart1; if that byte is itself 0xA0 it is pushed back
// so it can start the next frame instead of being discarded.
type Scanner struct {
	source *streamio.ByteStream

	state   scanState
	length  uint16
	payload []byte
	ck      uint16
	wantCk  uint16
}

// NewScanner creates a Scanner reading from source.
func NewScanner(source *streamio.ByteStream) *Scanner {
	return &Scanner{source: source}
}

func (s *Scanner) reset(b byte) {
	s.state = stateStart1
	s.payload = s.payload[:0]
	if b == start1 {
		s.source.PushBack(b)
	}
}

// Next blocks until a complete, checksum-valid Frame has been read, or
// the underlying source returns an error.
func (s *Scanner) Next() (Frame, error) {
	for {
		b, err := s.source.GetNextByte()
		if err != nil {
			return Frame{}, err
		}

		switch s.state {
		case stateStart1:
			if b == start1 {
				s.state = stateStart2
			}
		case stateStart2:
			if b == start2 {
				s.state = stateLen1
			} else {
				s.reset(b)
			}
		case stateLen1:
			s.length = uint16(b) << 8
			s.state = stateLen2
		case stateLen2:
			s.length |= uint16(b)
			s.length &= 0x7FFF
			if s.length == 0 || s.length > maxPayloadLength {
				s.reset(b)
				continue
			}
			s.payload = make([]byte, 0, s.length)
			s.state = statePayload
		case statePayload:
			s.payload = append(s.payload, b)
			if len(s.payload) == int(s.length) {
				s.state = stateCk1
			}
		case stateCk1:
			s.wantCk = uint16(b) << 8
			s.state = stateCk2
		case stateCk2:
			s.wantCk |= uint16(b)
			s.state = stateEnd1
			s.ck = checksum(s.payload)
		case stateEnd1:
			if b != end1 {
				s.reset(b)
				continue
			}
			s.state = stateEnd2
		case stateEnd2:
			s.state = stateStart1
			if b != end2 {
				s.reset(b)
				continue
			}
			if s.wantCk != s.ck {
				return Frame{}, fmt.Errorf("sirf: checksum mismatch: want %04X got %04X", s.wantCk, s.ck)
			}
			if len(s.payload) == 0 {
				return Frame{}, fmt.Errorf("sirf: empty payload")
			}
			out := Frame{ID: s.payload[0], Payload: append([]byte(nil), s.payload[1:]...)}
			return out, nil
		}
	}
}
