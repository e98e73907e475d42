package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/peerdeck/internal/backend"
	"github.com/five82/peerdeck/internal/backend/backendtest"
)

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) Report(_ string, err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func newController(t *testing.T) (*Controller, *backendtest.Fake, *recordingReporter) {
	t.Helper()
	fake := backendtest.New()
	rep := &recordingReporter{}
	return New(fake, Options{Reporter: rep}), fake, rep
}

func TestRequestConnect_UsesReconnectAfterFirstSession(t *testing.T) {
	fake := backendtest.New()
	refreshes := 0
	c := New(fake, Options{OnConnected: func() { refreshes++ }})
	ctx := context.Background()

	if err := c.RequestConnect(ctx); err != nil {
		t.Fatalf("RequestConnect returned error: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("State = %v, want connected", c.State())
	}
	if err := c.RequestDisconnect(ctx); err != nil {
		t.Fatalf("RequestDisconnect returned error: %v", err)
	}
	if err := c.RequestConnect(ctx); err != nil {
		t.Fatalf("second RequestConnect returned error: %v", err)
	}

	if got := fake.CallCount(backend.CmdConnect); got != 1 {
		t.Fatalf("connect calls = %d, want 1", got)
	}
	if got := fake.CallCount(backend.CmdReconnect); got != 1 {
		t.Fatalf("reconnect calls = %d, want 1", got)
	}
	if refreshes != 2 {
		t.Fatalf("refresh signals = %d, want 2", refreshes)
	}
}

func TestRequestConnect_NoOpWhenConnected(t *testing.T) {
	c, fake, _ := newController(t)
	c.Reconcile(true)

	if err := c.RequestConnect(context.Background()); err != nil {
		t.Fatalf("RequestConnect returned error: %v", err)
	}
	if got := len(fake.Calls()); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
}

func TestRequestConnect_FailureRollsBack(t *testing.T) {
	c, fake, rep := newController(t)
	fake.Reject(backend.CmdConnect, "tracker unreachable")

	err := c.RequestConnect(context.Background())
	if !backend.IsRejection(err) {
		t.Fatalf("RequestConnect error = %v, want rejection", err)
	}
	if c.State() != Disconnected {
		t.Fatalf("State = %v, want disconnected", c.State())
	}
	if rep.count() != 1 {
		t.Fatalf("reports = %d, want 1", rep.count())
	}
}

func TestRequestDisconnect_FailureRollsBackToConnected(t *testing.T) {
	c, fake, rep := newController(t)
	c.Reconcile(true)
	fake.Unreachable(backend.CmdDisconnect)

	err := c.RequestDisconnect(context.Background())
	if !backend.IsTransport(err) {
		t.Fatalf("RequestDisconnect error = %v, want transport error", err)
	}
	if c.State() != Connected {
		t.Fatalf("State = %v, want connected", c.State())
	}
	if rep.count() != 1 {
		t.Fatalf("reports = %d, want 1", rep.count())
	}
}

func TestReconcile_Converges(t *testing.T) {
	tests := []struct {
		name        string
		start       bool
		truth       bool
		wantChanged bool
		want        State
	}{
		{name: "disconnected to connected", start: false, truth: true, wantChanged: true, want: Connected},
		{name: "connected to disconnected", start: true, truth: false, wantChanged: true, want: Disconnected},
		{name: "already connected", start: true, truth: true, wantChanged: false, want: Connected},
		{name: "already disconnected", start: false, truth: false, wantChanged: false, want: Disconnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newController(t)
			c.Reconcile(tt.start)

			if got := c.Reconcile(tt.truth); got != tt.wantChanged {
				t.Fatalf("Reconcile changed = %v, want %v", got, tt.wantChanged)
			}
			if c.State() != tt.want {
				t.Fatalf("State = %v, want %v", c.State(), tt.want)
			}
		})
	}
}

func TestSync_AppliesBackendTruth(t *testing.T) {
	c, fake, _ := newController(t)
	fake.SetConnected(true)

	if err := c.Sync(context.Background()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("State = %v, want connected", c.State())
	}
	if got := len(fake.Calls()); got != 1 {
		t.Fatalf("calls = %d, want only is_connected", got)
	}
}

func TestInFlight_SuppressesReconcileAndOppositeIntent(t *testing.T) {
	c, fake, _ := newController(t)
	gate := fake.Hold(backend.CmdConnect)

	done := make(chan error, 1)
	go func() { done <- c.RequestConnect(context.Background()) }()
	if !gate.WaitArrived(2 * time.Second) {
		t.Fatalf("connect never reached the backend")
	}

	if c.State() != Connecting {
		t.Fatalf("State = %v, want connecting", c.State())
	}
	if c.Reconcile(false) {
		t.Fatalf("Reconcile changed state during connect")
	}
	if err := c.Sync(context.Background()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if c.State() != Connecting {
		t.Fatalf("State after Sync = %v, want connecting", c.State())
	}
	if err := c.RequestDisconnect(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("RequestDisconnect error = %v, want ErrBusy", err)
	}

	gate.Release()
	if err := <-done; err != nil {
		t.Fatalf("RequestConnect returned error: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("State = %v, want connected", c.State())
	}
}

func TestSync_DropsAnswerOlderThanLatestTransition(t *testing.T) {
	c, fake, _ := newController(t)
	gate := fake.Hold(backend.CmdIsConnected)

	done := make(chan error, 1)
	go func() { done <- c.Sync(context.Background()) }()
	if !gate.WaitArrived(2 * time.Second) {
		t.Fatalf("is_connected never reached the backend")
	}

	// A newer observation lands while the poll is outstanding.
	c.Reconcile(true)
	gate.Release()

	if err := <-done; err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("State = %v, want connected (stale poll must not win)", c.State())
	}
}

func TestSync_ReturnsTransportError(t *testing.T) {
	c, fake, rep := newController(t)
	fake.Unreachable(backend.CmdIsConnected)

	if err := c.Sync(context.Background()); !backend.IsTransport(err) {
		t.Fatalf("Sync error = %v, want transport error", err)
	}
	if rep.count() != 0 {
		t.Fatalf("reports = %d, want 0 (poll failures are not user notices)", rep.count())
	}
}

func TestSubscribe_ReceivesChangesUntilUnsubscribed(t *testing.T) {
	c, _, _ := newController(t)
	var got []Change
	unsubscribe := c.Subscribe(func(ch Change) { got = append(got, ch) })

	if err := c.RequestConnect(context.Background()); err != nil {
		t.Fatalf("RequestConnect returned error: %v", err)
	}
	unsubscribe()
	c.Reconcile(false)

	if len(got) != 2 {
		t.Fatalf("changes = %#v, want 2", got)
	}
	if got[0].To != Connecting || got[0].Cause != CauseIntent {
		t.Fatalf("first change = %#v, want intent to connecting", got[0])
	}
	if got[1].To != Connected || got[1].Seq != 2 {
		t.Fatalf("second change = %#v, want connected seq 2", got[1])
	}
}
