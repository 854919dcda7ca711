package printer

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"

	"github.com/ipops/ipops/internal/ipops"
)

// lpConfirmation matches lp's success line, e.g.
// "request id is printer-42 (1 file(s))\n".
var lpConfirmation = regexp.MustCompile(`^request id is \S+ \(\d+ file\(s\)\)\n$`)

// Submitter invokes the local "lp" print backend to send a rendered PDF to
// the printer, and inspects its output to confirm the job was accepted.
type Submitter struct {
	LookPath func(string) (string, error)
	Command  func(name string, args ...string) *exec.Cmd
}

// NewSubmitter returns a Submitter wired to the real OS process APIs.
func NewSubmitter() *Submitter {
	return &Submitter{LookPath: exec.LookPath, Command: exec.Command}
}

// Submit pipes pdf into lp's stdin and validates its confirmation output.
func (s *Submitter) Submit(pdf []byte) error {
	if _, err := s.LookPath("lp"); err != nil {
		return &ipops.SubprocessError{Cmd: "lp", Err: fmt.Errorf("not found on PATH: %w", err)}
	}

	cmd := s.Command("lp")
	cmd.Stdin = bytes.NewReader(pdf)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ipops.SubprocessError{Cmd: "lp", Err: fmt.Errorf("%w: %s", err, stderr.String())}
	}

	out := stdout.String()
	if out != "" && !lpConfirmation.MatchString(out) {
		slog.Warn("lp produced unexpected output", "stdout", out)
	}
	return nil
}
