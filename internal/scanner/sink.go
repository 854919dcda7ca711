package scanner

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
)

// Sink is the scanner-side outbound collaborator: it accepts a completed
// contiguous run's bytes and forwards them somewhere outside the process.
type Sink interface {
	Write(data []byte) error
}

// PipeSink appends drained bytes to a named pipe, opened fresh for each
// write. It is the mandatory sink every scanner session uses.
type PipeSink struct {
	Path string
}

// NewPipeSink returns a Sink writing to path (normally IPOPS_INBOUND_PATH,
// but the caller may override it, e.g. from a command-line flag, before
// the sink is built).
func NewPipeSink(path string) *PipeSink { return &PipeSink{Path: path} }

func (p *PipeSink) Write(data []byte) error {
	f, err := os.OpenFile(p.Path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open sink pipe %s: %w", p.Path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write sink pipe %s: %w", p.Path, err)
	}
	return nil
}

// FTPSink uploads each drained run as one file to an FTP server, alongside
// the mandatory named-pipe sink. It is off by default.
type FTPSink struct {
	Host     string
	User     string
	Password string
	now      func() time.Time
}

// NewFTPSink returns a Sink uploading to host:port (default port 21 when
// host carries none).
func NewFTPSink(host, user, password string) *FTPSink {
	return &FTPSink{Host: host, User: user, Password: password, now: time.Now}
}

func (s *FTPSink) Write(data []byte) error {
	addr := s.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "21")
	}

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("FTP connect %s: %w", addr, err)
	}
	defer conn.Quit()

	user := s.User
	if user == "" {
		user = "anonymous"
	}
	if err := conn.Login(user, s.Password); err != nil {
		return fmt.Errorf("FTP login: %w", err)
	}

	name := fmt.Sprintf("ipops_%d.bin", s.now().Unix())
	if err := conn.Stor(name, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("FTP upload %s: %w", name, err)
	}
	slog.Info("drained run forwarded via FTP", "file", name, "bytes", len(data))
	return nil
}

// MultiSink fans a single drained run out to every configured sink. The
// first error aborts remaining writes but is still reported.
type MultiSink struct {
	Sinks []Sink
}

func (m *MultiSink) Write(data []byte) error {
	for _, s := range m.Sinks {
		if err := s.Write(data); err != nil {
			return err
		}
	}
	return nil
}
