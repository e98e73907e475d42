package state

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestStore_ReportAndSnapshotClone(t *testing.T) {
	var s Store
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.Report("files", errors.New("delete_file: in use"))
	s.Report("seeding", nil)

	snap := s.Snapshot()
	latest, ok := snap.Latest()
	if !ok {
		t.Fatalf("Latest() ok = false, want true")
	}
	if latest.Source != "files" || !latest.At.Equal(fixed) {
		t.Fatalf("Latest() = %#v, want files at %v", latest, fixed)
	}
	if len(snap.Notices) != 1 {
		t.Fatalf("Notices = %d, want 1 (nil errors ignored)", len(snap.Notices))
	}

	// Returned snapshot should be independent of the stored one.
	snap.Notices[0].Source = "mutated"
	if got := s.Snapshot().Notices[0].Source; got != "files" {
		t.Fatalf("Snapshot should clone notices; got %q want files", got)
	}

	s.DismissNotices()
	if _, ok := s.Snapshot().Latest(); ok {
		t.Fatalf("Latest() ok = true after dismiss, want false")
	}
}

func TestStore_NoticesAreBounded(t *testing.T) {
	var s Store
	for i := 0; i < maxNotices+10; i++ {
		s.Report("connection", fmt.Errorf("fail %d", i))
	}
	snap := s.Snapshot()
	if len(snap.Notices) != maxNotices {
		t.Fatalf("Notices = %d, want %d", len(snap.Notices), maxNotices)
	}
	if got := snap.Notices[0].Err.Error(); got != "fail 10" {
		t.Fatalf("oldest notice = %q, want fail 10", got)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("initial snapshot = %#v, want online with 0 failures", snap)
	}

	s.RecordPoll(errors.New("fail 1"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}

	s.RecordPoll(errors.New("fail 2"))
	snap = s.Snapshot()
	if !snap.IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}
	if snap.LastPollError == nil || snap.LastPollError.Error() != "fail 2" {
		t.Fatalf("LastPollError = %v, want fail 2", snap.LastPollError)
	}

	s.RecordPoll(nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() || snap.LastPollError != nil {
		t.Fatalf("snapshot after success = %#v, want reset", snap)
	}
}
