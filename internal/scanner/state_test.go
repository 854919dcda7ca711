package scanner

import (
	"path/filepath"
	"testing"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := LoadState(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	return s
}

func TestDrainContiguousOutOfOrderArrival(t *testing.T) {
	s := newTestState(t)
	mustRecord(t, s, 3, "A")
	mustRecord(t, s, 5, "C")
	mustRecord(t, s, 4, "B")

	data, ok, err := s.DrainContiguous(3)
	if err != nil {
		t.Fatalf("DrainContiguous: %v", err)
	}
	if !ok || string(data) != "ABC" {
		t.Fatalf("data = %q, ok=%v, want %q, true", data, ok, "ABC")
	}

	states := s.States(3)
	for p := 3; p <= 5; p++ {
		if states[p] != Sent {
			t.Fatalf("page %d state = %v, want Sent", p, states[p])
		}
	}
}

func TestDrainContiguousStopsAtGap(t *testing.T) {
	s := newTestState(t)
	mustRecord(t, s, 3, "A")
	mustRecord(t, s, 5, "C")

	data, ok, err := s.DrainContiguous(3)
	if err != nil {
		t.Fatalf("DrainContiguous: %v", err)
	}
	if !ok || string(data) != "A" {
		t.Fatalf("data = %q, ok=%v, want %q, true", data, ok, "A")
	}

	mustRecord(t, s, 4, "B")
	data, ok, err = s.DrainContiguous(3)
	if err != nil {
		t.Fatalf("DrainContiguous: %v", err)
	}
	if !ok || string(data) != "BC" {
		t.Fatalf("data = %q, ok=%v, want %q, true", data, ok, "BC")
	}
}

func TestDrainContiguousIsIdempotent(t *testing.T) {
	s := newTestState(t)
	mustRecord(t, s, 3, "A")

	if _, ok, err := s.DrainContiguous(3); err != nil || !ok {
		t.Fatalf("first drain: ok=%v err=%v", ok, err)
	}
	data, ok, err := s.DrainContiguous(3)
	if err != nil {
		t.Fatalf("DrainContiguous: %v", err)
	}
	if ok || data != nil {
		t.Fatalf("second drain should be empty, got data=%q ok=%v", data, ok)
	}
}

func TestDrainContiguousWithoutPrecedingPageDoesNotDrain(t *testing.T) {
	s := newTestState(t)
	mustRecord(t, s, 1, "A")
	mustRecord(t, s, 3, "C") // max(sent)+2 without max(sent)+1

	_, ok, err := s.DrainContiguous(1)
	if err != nil {
		t.Fatalf("DrainContiguous: %v", err)
	}
	if !ok {
		t.Fatalf("expected page 1 alone to drain")
	}
	_, ok, err = s.DrainContiguous(1)
	if err != nil {
		t.Fatalf("DrainContiguous: %v", err)
	}
	if ok {
		t.Fatalf("page 3 should not drain while page 2 is missing")
	}
}

func TestRecordOverwritesDuplicatePage(t *testing.T) {
	s := newTestState(t)
	mustRecord(t, s, 1, "A")
	mustRecord(t, s, 1, "Z")

	data, ok, err := s.DrainContiguous(1)
	if err != nil {
		t.Fatalf("DrainContiguous: %v", err)
	}
	if !ok || string(data) != "Z" {
		t.Fatalf("data = %q, want %q (latest write wins)", data, "Z")
	}
}

func TestStatePersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	s, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	mustRecord(t, s, 3, "A")
	if _, _, err := s.DrainContiguous(3); err != nil {
		t.Fatalf("DrainContiguous: %v", err)
	}

	reloaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState (reload): %v", err)
	}
	if reloaded.States(3)[3] != Sent {
		t.Fatalf("page 3 state after reload = %v, want Sent", reloaded.States(3)[3])
	}
}

func TestLoadStateMissingFileStartsEmpty(t *testing.T) {
	s, err := LoadState(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(s.States(0)) != 0 {
		t.Fatalf("expected no known pages for a fresh state file")
	}
}

func mustRecord(t *testing.T, s *State, page int, payload string) {
	t.Helper()
	if err := s.Record(page, []byte(payload)); err != nil {
		t.Fatalf("Record(%d): %v", page, err)
	}
}
