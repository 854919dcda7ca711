package printer

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ipops/ipops/internal/config"
	"github.com/ipops/ipops/internal/ipops"
	"github.com/ipops/ipops/internal/pagecodec"
)

// printSubmitter is the subset of *Submitter the supervisor depends on,
// letting tests substitute a fake print backend.
type printSubmitter interface {
	Submit(pdf []byte) error
}

// Run drives the printer pipeline — accumulate, encode, submit, advance —
// until ctx is cancelled or stdin is exhausted.
func Run(ctx context.Context, stdin io.Reader, settings config.Settings, submitter printSubmitter) error {
	counterPath := filepath.Join(settings.StateDir, "starting_page_number")
	counter, err := LoadCounter(counterPath)
	if err != nil {
		return err
	}

	acc := NewAccumulator(
		stdin,
		settings.ContiguousMinBufferSize,
		durationFromSeconds(settings.ContiguousDataTimeout),
		durationFromSeconds(settings.NewFramePollingRate),
	)

	for {
		frame, err := acc.Accumulate(ctx)
		if err != nil {
			if _, ok := err.(*ipops.Terminated); ok {
				slog.Info("termination signal observed, shutting down")
				return counter.Save()
			}
			return err
		}
		if len(frame) == 0 {
			continue
		}

		pdf, pages, err := pagecodec.Encode(frame, counter.Value(), settings)
		if err != nil {
			return err
		}
		if pages == 0 {
			continue
		}

		if err := submitter.Submit(pdf); err != nil {
			return err
		}

		counter.Advance(pages)
		slog.Info("frame printed", "pages", pages, "counter", counter.Value(), "bytes", len(frame))
	}
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ExitCode maps a top-level pipeline error to the process exit code the
// command line reports for it.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch err.(type) {
	case *ipops.ConfigError:
		return 2
	case *ipops.MalformedStream:
		return 2
	case *ipops.SubprocessError:
		return 3
	default:
		return 1
	}
}
