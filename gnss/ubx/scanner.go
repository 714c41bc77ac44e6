package ubx

import (
	"fmt"

	"github.com/ubports/location-service-sub002/gnss/streamio"
)

type scanState int

const (
	stateSync1 scanState = iota
	stateSync2
	stateClass
	stateID
	stateLen1
	stateLen2
	statePayload
	stateCkA
	stateCkB
)

const maxPayloadLength = 2048

// Scanner reads a byte stream and emits decoded, checksum-verified UBX
// Frames.  Any byte that cannot advance the current state returns the
// scanner to stateSync1; if that byte is itself 0xB5 it is pushed back
// so it can start the next frame instead of being discarded.
type Scanner struct {
	source *streamio.ByteStream

	state   scanState
	class   byte
	id      byte
	length  uint16
	payload []byte
	ckA, ckB byte
	wantCkA, wantCkB byte
}

// NewScanner creates a Scanner reading from source.
func NewScanner(source *streamio.ByteStream) *Scanner {
	return &Scanner{source: source}
}

func (s *Scanner) reset(b byte) {
	s.state = stateSync1
	s.payload = s.payload[:0]
	if b == sync1 {
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
		case stateSync1:
			if b == sync1 {
				s.state = stateSync2
			}
		case stateSync2:
			if b == sync2 {
				s.state = stateClass
			} else {
				s.reset(b)
			}
		case stateClass:
			s.class = b
			s.state = stateID
		case stateID:
			s.id = b
			s.state = stateLen1
		case stateLen1:
			s.length = uint16(b)
			s.state = stateLen2
		case stateLen2:
			s.length |= uint16(b) << 8
			if s.length > maxPayloadLength {
				s.reset(b)
				continue
			}
			s.payload = make([]byte, 0, s.length)
			s.ckA, s.ckB = fletcher8([]byte{s.class, s.id, byte(s.length), byte(s.length >> 8)})
			if s.length == 0 {
				s.state = stateCkA
			} else {
				s.state = statePayload
			}
		case statePayload:
			s.payload = append(s.payload, b)
			s.ckA += b
			s.ckB += s.ckA
			if len(s.payload) == int(s.length) {
				s.state = stateCkA
			}
		case stateCkA:
			s.wantCkA = b
			s.state = stateCkB
		case stateCkB:
			s.wantCkB = b
			s.state = stateSync1
			if s.wantCkA != s.ckA || s.wantCkB != s.ckB {
				return Frame{}, fmt.Errorf("ubx: checksum mismatch for class 0x%02X id 0x%02X", s.class, s.id)
			}
			out := Frame{Class: s.class, ID: s.id, Payload: append([]byte(nil), s.payload...)}
			return out, nil
		}
	}
}
