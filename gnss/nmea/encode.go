package nmea

import "fmt"

// Encode renders body - the part of a sentence between '$' and the
// checksum, e.g. "GPRMC,..." - as a complete, checksummed NMEA
// sentence ready to write to a receiver.
func Encode(body string) []byte {
	c := checksum([]byte(body))
	return []byte(fmt.Sprintf("$%s*%s\r\n", body, formatChecksum(c)))
}
