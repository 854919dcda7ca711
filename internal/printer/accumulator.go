package printer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ipops/ipops/internal/ipops"
)

// Accumulator turns a stream of 3-byte-length-prefixed records into
// variable-sized frames, coalescing consecutive records until either the
// buffer reaches a minimum size or the data goes quiet for a configured
// timeout.
type Accumulator struct {
	reader        *timeoutReader
	minBufferSize int
	dataTimeout   time.Duration
	pollInterval  time.Duration
	buf           []byte
}

// NewAccumulator wraps r. A frame is flushed once it holds at least
// minBufferSize bytes or no record arrives within dataTimeout; pollInterval
// bounds each wait for the first record of a new frame. Record lengths are
// not limited by these settings.
func NewAccumulator(r io.Reader, minBufferSize int, dataTimeout, pollInterval time.Duration) *Accumulator {
	return &Accumulator{
		reader:        newTimeoutReader(r),
		minBufferSize: minBufferSize,
		dataTimeout:   dataTimeout,
		pollInterval:  pollInterval,
	}
}

// Accumulate returns the next frame, or an *ipops.Terminated error once ctx
// is cancelled while no partial frame is held, or *ipops.MalformedStream on
// a truncated record.
func (a *Accumulator) Accumulate(ctx context.Context) ([]byte, error) {
	for {
		if len(a.buf) == 0 && ctx.Err() != nil {
			return nil, &ipops.Terminated{}
		}

		timeout := a.dataTimeout
		if len(a.buf) == 0 {
			timeout = a.pollInterval
		}

		lenBytes, err := a.reader.readExact(3, timeout)
		if err == errTimeout {
			if len(a.buf) == 0 {
				continue // still waiting for the first record of a new frame
			}
			return a.flush(), nil
		}
		if err != nil {
			if len(a.buf) > 0 {
				return nil, &ipops.MalformedStream{Msg: fmt.Sprintf("EOF while reading record length: %v", err)}
			}
			return nil, &ipops.Terminated{}
		}

		l := int(lenBytes[0])<<16 | int(lenBytes[1])<<8 | int(lenBytes[2])
		if l < 0 {
			// Defensive: a 3-byte big-endian unsigned field can never produce
			// a negative int here, but guards against a sign-extending reader.
			return nil, &ipops.MalformedStream{Msg: "negative record length"}
		}
		if l == 0 {
			slog.Debug("skipped zero-length idle record")
			continue
		}

		payload, err := a.reader.readExact(l, 0)
		if err != nil {
			return nil, &ipops.MalformedStream{Msg: fmt.Sprintf("EOF mid-record: wanted %d bytes: %v", l, err)}
		}
		a.buf = append(a.buf, payload...)

		if len(a.buf) >= a.minBufferSize {
			return a.flush(), nil
		}
	}
}

func (a *Accumulator) flush() []byte {
	out := a.buf
	a.buf = nil
	return out
}
