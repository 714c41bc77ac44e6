// Package streamio provides a small buffered byte source with pushback,
// used by the GNSS scanners when a byte that can't advance the current
// frame still needs to be reconsidered as the possible start of the next
// one.
package streamio

import "errors"

// ErrClosed is returned by GetNextByte once the underlying channel has
// been drained and closed.
var ErrClosed = errors.New("streamio: source closed")

// ErrNilSource is returned by GetNextByte when the ByteStream was created
// without a channel.
var ErrNilSource = errors.New("streamio: nil source")

// ByteStream is a channel of bytes with a pushback buffer.  A Receiver
// reads bytes from the underlying serial port or replay file on its own
// goroutine and feeds them into a channel; the scanner for the
// configured protocol consumes that channel through a ByteStream, so a
// byte that ends one frame attempt can be offered again as the possible
// start of the next without being lost.  Any number of bytes may be
// pushed back; they come back in the order they were pushed.
type ByteStream struct {
	pushedBack []byte
	source     chan byte
}

// New wraps ch, which must be a buffered channel fed by the caller, in a
// ByteStream.
func New(ch chan byte) *ByteStream {
	return &ByteStream{source: ch}
}

// Close closes the underlying channel.
func (bs *ByteStream) Close() {
	close(bs.source)
}

func (bs *ByteStream) get() (byte, error) {
	if bs.source == nil {
		return 0, ErrNilSource
	}
	b, more := <-bs.source
	if !more {
		return 0, ErrClosed
	}
	return b, nil
}

// GetNextByte returns the next byte, preferring any byte previously
// pushed back over the underlying channel.
func (bs *ByteStream) GetNextByte() (byte, error) {
	if len(bs.pushedBack) > 0 {
		b := bs.pushedBack[0]
		bs.pushedBack = bs.pushedBack[1:]
		return b, nil
	}
	return bs.get()
}

// PushBack queues b to be returned by GetNextByte after any bytes
// already pushed back and ahead of anything still in the channel.
func (bs *ByteStream) PushBack(b byte) {
	bs.pushedBack = append(bs.pushedBack, b)
}
