package nmea

import (
	"fmt"

	"github.com/ubports/location-service-sub002/gnss/streamio"
)

const (
	maxSentenceLength = 82 // NMEA 0183 caps a sentence, '$'..'\n', at 82 bytes.
)

type scanState int

const (
	stateWaitStart scanState = iota
	stateBody
	stateChecksum1
	stateChecksum2
	stateCR
	stateLF
)

// Scanner reads a byte stream and emits raw NMEA sentences - the bytes
// between a leading '$' and the checksum, with the checksum validated.
// It is deliberately forgiving: any byte that cannot advance the
// current state drops the scanner back to stateWaitStart, and if that
// byte is itself '$' it is pushed back so the very same byte can start
// the next sentence, rather than being silently discarded.
type Scanner struct {
	source *streamio.ByteStream

	state   scanState
	body    []byte
	cksum1  byte
	cksum2  byte
}

// NewScanner creates a Scanner reading from source.
func NewScanner(source *streamio.ByteStream) *Scanner {
	return &Scanner{source: source}
}

// reset returns the scanner to its initial state, pushing b back onto
// the source so it can be reconsidered as the start of the next frame.
func (s *Scanner) reset(b byte) {
	s.state = stateWaitStart
	s.body = s.body[:0]
	if b == '$' {
		s.source.PushBack(b)
	}
}

// Next blocks until a complete, checksum-valid sentence has been read,
// or the underlying source returns an error.  The returned bytes are
// the sentence body - talker, fields and any tag block - without the
// leading '$', the '*CC' checksum, or the trailing CRLF.
func (s *Scanner) Next() ([]byte, error) {
	for {
		b, err := s.source.GetNextByte()
		if err != nil {
			return nil, err
		}

		switch s.state {
		case stateWaitStart:
			if b == '$' {
				s.state = stateBody
				s.body = s.body[:0]
			}
			// any other byte while waiting for a start is simply discarded;
			// there is no partial frame whose start it could reclaim.

		case stateBody:
			switch {
			case b == '*':
				s.state = stateChecksum1
			case len(s.body) >= maxSentenceLength:
				s.reset(b)
			default:
				s.body = append(s.body, b)
			}

		case stateChecksum1:
			if !isHexDigit(b) {
				s.reset(b)
				continue
			}
			s.cksum1 = b
			s.state = stateChecksum2

		case stateChecksum2:
			if !isHexDigit(b) {
				s.reset(b)
				continue
			}
			s.cksum2 = b
			s.state = stateCR

		case stateCR:
			if b != '\r' {
				s.reset(b)
				continue
			}
			s.state = stateLF

		case stateLF:
			if b != '\n' {
				s.reset(b)
				continue
			}
			want := checksum(s.body)
			got, ok := parseHexByte(s.cksum1, s.cksum2)
			s.state = stateWaitStart
			if !ok || got != want {
				return nil, fmt.Errorf("nmea: checksum mismatch, want %02X got %c%c", want, s.cksum1, s.cksum2)
			}
			out := make([]byte, len(s.body))
			copy(out, s.body)
			return out, nil
		}
	}
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	default:
		return b - 'a' + 10
	}
}

func parseHexByte(hi, lo byte) (byte, bool) {
	if !isHexDigit(hi) || !isHexDigit(lo) {
		return 0, false
	}
	return hexValue(hi)<<4 | hexValue(lo), true
}
