// Package ubx decodes and encodes u-blox UBX binary protocol messages:
// a two-byte sync (0xB5 0x62), a class and message id, a little-endian
// 16-bit payload length, the payload itself, and a two-byte Fletcher-8
// checksum covering everything from class through the end of the
// payload.
package ubx

import "encoding/binary"

const (
	sync1 = 0xB5
	sync2 = 0x62
)

// Message classes and ids used by the receiver driver.  Names follow
// u-blox's own CLASS-ID convention.
const (
	ClassNAV = 0x01
	ClassACK = 0x05
	ClassCFG = 0x06

	NAVPVT = 0x07
	NAVSAT = 0x35

	ACKNAK = 0x00
	ACKACK = 0x01

	CFGMSG = 0x01
	CFGRST = 0x04
	CFGGNSS = 0x3E
)

// Frame is a decoded UBX message: class, id and payload, with the
// checksum already verified.
type Frame struct {
	Class   byte
	ID      byte
	Payload []byte
}

// fletcher8 computes the two-byte Fletcher checksum UBX uses, over
// class, id, the little-endian length and the payload.
func fletcher8(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// Encode renders a Frame as a complete UBX message ready to write to
// the receiver.
func Encode(f Frame) []byte {
	body := make([]byte, 4+len(f.Payload))
	body[0] = f.Class
	body[1] = f.ID
	binary.LittleEndian.PutUint16(body[2:4], uint16(len(f.Payload)))
	copy(body[4:], f.Payload)

	ckA, ckB := fletcher8(body)

	out := make([]byte, 0, 2+len(body)+2)
	out = append(out, sync1, sync2)
	out = append(out, body...)
	out = append(out, ckA, ckB)
	return out
}
