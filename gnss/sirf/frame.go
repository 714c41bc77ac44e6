// Package sirf decodes and encodes SiRF Binary protocol messages: a
// two-byte start sequence (0xA0 0xA2), a big-endian 15-bit payload
// length, the payload, a two-byte checksum that is the sum of every
// payload byte modulo 2^15, and a two-byte end sequence (0xB0 0xB3).
package sirf

import "encoding/binary"

const (
	start1 = 0xA0
	start2 = 0xA2
	end1   = 0xB0
	end2   = 0xB3
)

// Message ids used by the receiver driver.
const (
	MsgGeodeticNavigationData = 0x29

	MsgInitializeDataSource = 0x80
	MsgSetMessageRate       = 0xA6
	MsgSwitchToNMEA         = 0x81
)

// Frame is a decoded SiRF message: message id and payload, checksum
// already verified.
type Frame struct {
	ID      byte
	Payload []byte
}

// checksum sums every byte of payload modulo 2^15, as SiRF Binary
// specifies.
func checksum(payload []byte) uint16 {
	var sum uint16
	for _, b := range payload {
		sum = (sum + uint16(b)) & 0x7FFF
	}
	return sum
}

// Encode renders a Frame as a complete SiRF Binary message, with id as
// the first payload byte.
func Encode(f Frame) []byte {
	payload := make([]byte, 0, 1+len(f.Payload))
	payload = append(payload, f.ID)
	payload = append(payload, f.Payload...)

	out := make([]byte, 0, 4+len(payload)+4)
	out = append(out, start1, start2)

	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(payload)))
	out = append(out, lenBuf...)
	out = append(out, payload...)

	ck := checksum(payload)
	ckBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(ckBuf, ck)
	out = append(out, ckBuf...)

	out = append(out, end1, end2)
	return out
}
