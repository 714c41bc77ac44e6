package receiver

import (
	"io"
	"os"
	"strings"
	"time"
)

// replayPort reads a captured byte stream from disk as a dataPort. An
// EOF is not necessarily the end of the recording: if eofTimeout is
// non-zero, Read keeps retrying for that long (in case the file is
// still being appended to, e.g. a live capture) before giving up and
// returning io.EOF for real.
type replayPort struct {
	file       *os.File
	eofTimeout time.Duration

	// timeOfFirstEOF is set on the first EOF in a run of consecutive
	// EOFs, and cleared as soon as a read succeeds.
	timeOfFirstEOF *time.Time
}

func openReplay(path string, eofTimeout time.Duration) (*replayPort, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &replayPort{file: f, eofTimeout: eofTimeout}, nil
}

// Read implements dataPort. It retries on EOF (and on the "i/o
// timeout" errors a tailed device node can produce) until eofTimeout
// has elapsed since the first EOF in the current run, then returns the
// triggering error.
func (p *replayPort) Read(buf []byte) (int, error) {
	for {
		n, err := p.file.Read(buf)
		if err == nil {
			p.timeOfFirstEOF = nil
			return n, nil
		}
		if err != io.EOF && !strings.Contains(err.Error(), "i/o timeout") {
			return n, err
		}
		if p.eofTimeout == 0 {
			return n, err
		}

		now := time.Now()
		if p.timeOfFirstEOF == nil {
			p.timeOfFirstEOF = &now
		} else if now.Sub(*p.timeOfFirstEOF) > p.eofTimeout {
			return n, err
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Write discards outbound frames: a replay has no receiver on the
// other end to configure.
func (p *replayPort) Write(buf []byte) (int, error) {
	return len(buf), nil
}

func (p *replayPort) Close() error {
	return p.file.Close()
}

var _ dataPort = (*replayPort)(nil)
