package scanner

import (
	"errors"
	"image"
	"log/slog"

	"github.com/ipops/ipops/internal/ipops"
	"github.com/ipops/ipops/internal/pagecodec"
)

// capturer is the subset of *Capturer the supervisor depends on, letting
// tests substitute a fake scanner backend.
type capturer interface {
	Capture() (image.Image, error)
}

// ScanOnce drives one capture→decode→record→drain cycle. It returns the
// decoded page number and whether a contiguous run was drained to sink;
// the drained bytes themselves go only to sink. A DecodeError or a SubprocessError from the
// capture step is returned to the caller unwrapped so the operator
// console can recover and retry, since those two error kinds alone are
// considered recoverable.
func ScanOnce(capDev capturer, state *State, anchor int, sink Sink) (pageNumber int, drained bool, err error) {
	img, err := capDev.Capture()
	if err != nil {
		return 0, false, err
	}

	pageNumber, payload, err := pagecodec.Decode(img)
	if err != nil {
		return 0, false, err
	}

	if err := state.Record(pageNumber, payload); err != nil {
		return pageNumber, false, err
	}

	data, ok, err := state.DrainContiguous(anchor)
	if err != nil {
		return pageNumber, false, err
	}
	if !ok {
		return pageNumber, false, nil
	}

	if err := sink.Write(data); err != nil {
		return pageNumber, false, err
	}
	slog.Info("drained contiguous run", "bytes", len(data), "anchor", anchor)
	return pageNumber, true, nil
}

// Recoverable reports whether err is one of the two kinds the scanner
// operator loop can recover from locally instead of aborting.
func Recoverable(err error) bool {
	var decodeErr *ipops.DecodeError
	var subErr *ipops.SubprocessError
	return errors.As(err, &decodeErr) || errors.As(err, &subErr)
}
