package nmea

import "fmt"

// checksum XORs every byte between the leading '$' and the trailing
// '*', exclusive of both, as specified by NMEA 0183.
func checksum(frame []byte) byte {
	var sum byte
	for _, b := range frame {
		sum ^= b
	}
	return sum
}

// formatChecksum renders a checksum as the two upper-case hex digits
// that follow '*' on the wire.
func formatChecksum(c byte) string {
	return fmt.Sprintf("%02X", c)
}
