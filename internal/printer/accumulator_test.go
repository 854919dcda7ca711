package printer

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/ipops/ipops/internal/ipops"
)

func record(payload string) []byte {
	var buf bytes.Buffer
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(payload)))
	buf.Write(lenBytes[1:]) // 3-byte big-endian length
	buf.WriteString(payload)
	return buf.Bytes()
}

func TestAccumulateCoalescesUntilThreshold(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(record("HELLO"))
	stream.Write(record("WORLD"))

	a := NewAccumulator(&stream, 10, 50*time.Millisecond, 5*time.Millisecond)
	frame, err := a.Accumulate(context.Background())
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if string(frame) != "HELLOWORLD" {
		t.Fatalf("frame = %q, want %q", frame, "HELLOWORLD")
	}
}

func TestAccumulateSkipsZeroLengthIdleRecord(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(record("")) // zero-length idle marker
	stream.Write(record("AB"))

	a := NewAccumulator(&stream, 2, 50*time.Millisecond, 5*time.Millisecond)
	frame, err := a.Accumulate(context.Background())
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if string(frame) != "AB" {
		t.Fatalf("frame = %q, want %q", frame, "AB")
	}
}

func TestAccumulateFlushesOnIdleTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	a := NewAccumulator(pr, 1000, 30*time.Millisecond, 5*time.Millisecond)

	go func() {
		pw.Write(record("PART"))
		// no further writes: the contiguous-data timeout must flush "PART"
	}()

	frame, err := a.Accumulate(context.Background())
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if string(frame) != "PART" {
		t.Fatalf("frame = %q, want %q", frame, "PART")
	}
	pw.Close()
}

func TestAccumulateReportsTerminatedWhenIdleAndCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	a := NewAccumulator(pr, 1000, 50*time.Millisecond, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Accumulate(ctx)
	if _, ok := err.(*ipops.Terminated); !ok {
		t.Fatalf("err = %v (%T), want *ipops.Terminated", err, err)
	}
}

func TestAccumulateMalformedOnTruncatedPayload(t *testing.T) {
	var stream bytes.Buffer
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], 10)
	stream.Write(lenBytes[1:])
	stream.WriteString("abc") // fewer than the declared 10 bytes, then EOF

	a := NewAccumulator(&stream, 1000, 50*time.Millisecond, 5*time.Millisecond)
	_, err := a.Accumulate(context.Background())
	if _, ok := err.(*ipops.MalformedStream); !ok {
		t.Fatalf("err = %v (%T), want *ipops.MalformedStream", err, err)
	}
}

func TestAccumulateExactThresholdFlushesImmediately(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(record("0123456789")) // exactly 10 bytes

	a := NewAccumulator(&stream, 10, 50*time.Millisecond, 5*time.Millisecond)
	frame, err := a.Accumulate(context.Background())
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if string(frame) != "0123456789" {
		t.Fatalf("frame = %q, want %q", frame, "0123456789")
	}
}
