// Package receiver drives a physical GNSS receiver over a serial port
// (or replays a previously captured byte stream) and turns the
// NMEA/UBX/SiRF frames it produces into the engine's typed Updates.
package receiver

import (
	"errors"
	"time"

	"go.bug.st/serial"
)

// Protocol identifies which of the three wire protocols this driver
// should speak to the receiver.
type Protocol int

const (
	// ProtocolNMEA speaks plain NMEA 0183 - the protocol nearly every
	// receiver supports, so it's the default.
	ProtocolNMEA Protocol = iota
	// ProtocolUBX speaks u-blox's UBX binary protocol.
	ProtocolUBX
	// ProtocolSiRF speaks SiRF Binary.
	ProtocolSiRF
)

// Config describes how to open and read a GNSS receiver's serial
// connection.  Zero values for BaudRate, ReadTimeoutMilliseconds and
// ReconnectDelay fall back to defaults when New builds a Receiver.
type Config struct {
	// Device is the path of the serial device, e.g. "/dev/ttyACM0".
	Device string

	// BaudRate defaults to 4800, the NMEA standard rate most receivers
	// power up at.
	BaudRate int

	Protocol Protocol

	// ReadTimeoutMilliseconds bounds each individual port.Read call.  A
	// timed-out read (0 bytes, no error) is treated as "nothing to
	// report yet", not as end of stream.
	ReadTimeoutMilliseconds int

	// ReconnectDelay is how long to wait before retrying after the
	// port is lost (unplugged, read error) or was never found.
	ReconnectDelay time.Duration

	// ReplayFile, if set, is read instead of Device: the receiver is
	// driven from a previously captured byte stream (e.g. a logged
	// NMEA session) rather than a live serial port. Useful for testing
	// the codecs and engine against a fixed recording.
	ReplayFile string

	// ReplayEOFTimeout bounds how long Read on a replay file keeps
	// retrying after reaching end-of-file before giving up and
	// returning io.EOF for real. Zero means return io.EOF immediately.
	ReplayEOFTimeout time.Duration
}

const (
	defaultBaudRate                = 4800
	defaultReadTimeoutMilliseconds = 500
	defaultReconnectDelay          = 2 * time.Second
)

// ErrNoDevice is returned when the port is opened with Device empty and
// no ReplayFile set.
var ErrNoDevice = errors.New("receiver: no device configured")

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = defaultBaudRate
	}
	if c.ReadTimeoutMilliseconds == 0 {
		c.ReadTimeoutMilliseconds = defaultReadTimeoutMilliseconds
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = defaultReconnectDelay
	}
	return c
}

func (c Config) mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: c.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
}

// dataPort is the subset of serial.Port that the read/decode loop
// needs, so a replay file can stand in for a live serial port.
type dataPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

func openPort(c Config) (dataPort, error) {
	if c.ReplayFile != "" {
		return openReplay(c.ReplayFile, c.ReplayEOFTimeout)
	}
	if c.Device == "" {
		return nil, ErrNoDevice
	}
	port, err := serial.Open(c.Device, c.mode())
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(c.ReadTimeoutMilliseconds) * time.Millisecond
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}
