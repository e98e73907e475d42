package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/backend"
	"github.com/five82/peerdeck/internal/backend/backendtest"
	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/seeding"
	"github.com/five82/peerdeck/internal/state"
	"github.com/five82/peerdeck/internal/view"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newSession(t *testing.T) (*Session, *backendtest.Fake) {
	t.Helper()
	fake := backendtest.New()
	s := NewSession(fake, SessionOptions{Store: &state.Store{}, Locale: "en", Logger: zerolog.Nop()})
	t.Cleanup(s.Close)
	return s, fake
}

func TestSession_PushUpdateReachesFiles(t *testing.T) {
	s, fake := newSession(t)

	if err := fake.Emit(backend.EventFileUpdate, []backend.RawFile{
		{Name: "b.txt", Size: 2, Hash: "bb"},
		{Name: "a.txt", Size: 1, Hash: "aa"},
	}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	rows := s.Rows(view.DefaultSort())
	if len(rows) != 2 || rows[0].Name != "a.txt" {
		t.Fatalf("rows = %#v, want a.txt first", rows)
	}
}

func TestSession_MalformedPushIsReported(t *testing.T) {
	s, fake := newSession(t)

	if err := fake.Emit(backend.EventFileUpdate, map[string]string{"not": "a list"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if _, ok := s.Store.Snapshot().Latest(); !ok {
		t.Fatalf("no notice reported for malformed payload")
	}
	if got := len(s.Files.Snapshot().Records); got != 0 {
		t.Fatalf("records = %d, want 0", got)
	}
}

func TestSession_ConnectTriggersRefresh(t *testing.T) {
	s, fake := newSession(t)
	fake.SetFiles([]backend.RawFile{{Name: "a.txt", Size: 1, Hash: "aa"}})

	stop := s.Start(context.Background(), 10*time.Millisecond)
	defer stop()

	waitFor(t, "initial refresh", func() bool { return fake.CallCount(backend.CmdGetAvailableFiles) >= 1 })
	before := fake.CallCount(backend.CmdGetAvailableFiles)

	if err := s.Conn.RequestConnect(context.Background()); err != nil {
		t.Fatalf("RequestConnect returned error: %v", err)
	}
	waitFor(t, "refresh after connect", func() bool {
		return fake.CallCount(backend.CmdGetAvailableFiles) > before
	})
	waitFor(t, "files loaded", func() bool { return len(s.Files.Snapshot().Records) == 1 })
}

func TestSession_PollFollowsBackendAndForcesSeedingOff(t *testing.T) {
	s, fake := newSession(t)
	fake.SetConnected(true)
	fake.SetSeeding(true)

	stop := s.Start(context.Background(), 5*time.Millisecond)
	defer stop()

	waitFor(t, "seeding on", func() bool { return s.Seed.State() == seeding.On })

	fake.SetConnected(false)
	waitFor(t, "disconnected", func() bool { return s.Conn.State() == connection.Disconnected })
	if s.Seed.State() != seeding.Off {
		t.Fatalf("seeding = %v, want off", s.Seed.State())
	}
	if got := fake.CallCount(backend.CmdStopSeeding); got != 0 {
		t.Fatalf("stop_seeding calls = %d, want 0", got)
	}
}

func TestSession_CloseReleasesSubscriptions(t *testing.T) {
	fake := backendtest.New()
	s := NewSession(fake, SessionOptions{Logger: zerolog.Nop()})
	if fake.Subscribers(backend.EventFileUpdate) != 1 {
		t.Fatalf("subscribers = %d, want 1", fake.Subscribers(backend.EventFileUpdate))
	}
	s.Close()
	s.Close()
	if fake.Subscribers(backend.EventFileUpdate) != 0 {
		t.Fatalf("subscribers = %d, want 0", fake.Subscribers(backend.EventFileUpdate))
	}
}

func TestStartPoller_RecordsFailuresAndStops(t *testing.T) {
	store := &state.Store{}
	calls := make(chan struct{}, 16)
	failing := Target{Name: "connection", Sync: func(context.Context) error {
		select {
		case calls <- struct{}{}:
		default:
		}
		return errors.New("connection refused")
	}}

	stop := StartPoller(context.Background(), store, time.Millisecond, zerolog.Nop(), failing)
	waitFor(t, "poll failure", func() bool { return store.Snapshot().ConsecutiveFailures >= 1 })

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not return")
	}

	snap := store.Snapshot()
	if snap.LastPollError == nil {
		t.Fatalf("LastPollError = nil, want error")
	}
}

func TestPollOnce_StopsAtFirstFailure(t *testing.T) {
	var ran []string
	targets := []Target{
		{Name: "connection", Sync: func(context.Context) error { ran = append(ran, "connection"); return errors.New("down") }},
		{Name: "seeding", Sync: func(context.Context) error { ran = append(ran, "seeding"); return nil }},
	}
	err := pollOnce(context.Background(), targets)
	if err == nil || err.Error() != "poll connection: down" {
		t.Fatalf("pollOnce error = %v, want poll connection: down", err)
	}
	if len(ran) != 1 {
		t.Fatalf("ran = %v, want only connection", ran)
	}
}
