package printer

import (
	"errors"
	"io"
	"time"
)

// errTimeout is returned by timeoutReader.readExact when the deadline
// elapses before enough bytes arrived.
var errTimeout = errors.New("read timeout")

// timeoutReader lets a caller impose a deadline on reads from an
// io.Reader (such as os.Stdin) that offers no native select/poll support.
// A single background goroutine pumps bytes off the underlying reader for
// the lifetime of the reader, so no bytes are lost between timed-out calls.
type timeoutReader struct {
	chunks  chan []byte
	done    chan error
	buf     []byte
	readErr error // sticky: set once the underlying reader is exhausted
}

func newTimeoutReader(r io.Reader) *timeoutReader {
	tr := &timeoutReader{
		chunks: make(chan []byte),
		done:   make(chan error, 1),
	}
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				tr.chunks <- chunk
			}
			if err != nil {
				tr.done <- err
				return
			}
		}
	}()
	return tr
}

// readExact blocks until n bytes have accumulated, the underlying reader
// is exhausted, or timeout elapses (timeout <= 0 means wait indefinitely).
func (tr *timeoutReader) readExact(n int, timeout time.Duration) ([]byte, error) {
	var timeoutCh <-chan time.Time
	for len(tr.buf) < n {
		if tr.readErr != nil {
			return nil, tr.readErr
		}
		if timeout > 0 {
			timeoutCh = time.After(timeout)
		}
		select {
		case chunk := <-tr.chunks:
			tr.buf = append(tr.buf, chunk...)
		case err := <-tr.done:
			tr.readErr = err
		case <-timeoutCh:
			return nil, errTimeout
		}
	}
	out := tr.buf[:n]
	tr.buf = tr.buf[n:]
	return out, nil
}
