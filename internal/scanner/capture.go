package scanner

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff"
	"golang.org/x/image/tiff"

	"github.com/ipops/ipops/internal/ipops"
)

// Capturer invokes the local "scanimage" utility to obtain one scanned
// image. Its fields mirror printer.Submitter's shape so both
// external-process wrappers can be substituted with fakes in tests.
type Capturer struct {
	LookPath func(string) (string, error)
	Command  func(name string, args ...string) *exec.Cmd
	Format   CaptureFormat
}

// NewCapturer returns a Capturer wired to the real OS process APIs.
func NewCapturer(format CaptureFormat) *Capturer {
	return &Capturer{LookPath: exec.LookPath, Command: exec.Command, Format: format}
}

// Capture runs scanimage once and decodes its stdout into an image. A
// single non-zero exit is retried once after a short backoff before the
// failure is surfaced to the operator as a SubprocessError.
func (c *Capturer) Capture() (image.Image, error) {
	if _, err := c.LookPath("scanimage"); err != nil {
		return nil, &ipops.SubprocessError{Cmd: "scanimage", Err: fmt.Errorf("not found on PATH: %w", err)}
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 1)

	var raw []byte
	err := backoff.Retry(func() error {
		out, err := c.run()
		if err != nil {
			return err
		}
		raw = out
		return nil
	}, policy)
	if err != nil {
		return nil, &ipops.SubprocessError{Cmd: "scanimage", Err: err}
	}

	return c.decode(raw)
}

func (c *Capturer) run() ([]byte, error) {
	cmd := c.Command("scanimage", "--format", string(c.Format))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (c *Capturer) decode(raw []byte) (image.Image, error) {
	if c.Format == FormatTIFF {
		img, err := tiff.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode tiff capture: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	return img, nil
}
