package printer

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/ipops/ipops/internal/ipops"
)

// Counter is the persistent page-number sequence counter: the running page
// number a printer session resumes from across restarts. It is advanced in
// memory on every successful frame submission and written to disk only on
// graceful termination.
type Counter struct {
	path  string
	value int
}

// LoadCounter reads path as minimal-length big-endian bytes, defaulting to
// 0 if the file does not exist.
func LoadCounter(path string) (*Counter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Counter{path: path, value: 0}, nil
		}
		return nil, err
	}
	v := 0
	for _, b := range data {
		v = v<<8 | int(b)
	}
	return &Counter{path: path, value: v}, nil
}

// Value returns the current counter value.
func (c *Counter) Value() int { return c.value }

// Advance increases the counter by n (the number of pages just printed).
func (c *Counter) Advance(n int) { c.value += n }

// Save persists the counter as minimal-length big-endian bytes, using an
// advisory flock (alongside the usual write-temp + atomic rename) since the
// printer supervisor is expected to be the file's sole writer but may share
// the state directory with other tooling.
func (c *Counter) Save() error {
	if c.value < 0 {
		return &ipops.InvalidState{Msg: "refusing to persist a negative counter"}
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}

	lock, err := os.OpenFile(c.path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer lock.Close()
	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(lock.Fd()), unix.LOCK_UN)

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, minimalBigEndian(c.value), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// minimalBigEndian encodes v as the shortest possible big-endian byte
// slice; 0 encodes as zero bytes.
func minimalBigEndian(v int) []byte {
	if v == 0 {
		return nil
	}
	var out []byte
	for v > 0 {
		out = append([]byte{byte(v & 0xff)}, out...)
		v >>= 8
	}
	return out
}
