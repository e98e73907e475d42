// Package connection tracks whether the backend session is open and drives
// connect and disconnect requests against it.
package connection

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/backend"
	"github.com/five82/peerdeck/internal/metrics"
)

// State is the local view of the backend session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// InFlight reports whether a command is outstanding for this state.
func (s State) InFlight() bool {
	return s == Connecting || s == Disconnecting
}

// Cause says why a state change happened.
type Cause string

const (
	CauseIntent    Cause = "intent"
	CauseCommand   Cause = "command"
	CauseRollback  Cause = "rollback"
	CauseReconcile Cause = "reconcile"
)

// Change describes one state transition.
type Change struct {
	From  State
	To    State
	Seq   uint64
	Cause Cause
}

// ErrBusy is returned when an opposite request arrives mid-transition.
var ErrBusy = errors.New("connection: transition in progress")

// Reporter receives errors that should surface to the user.
type Reporter interface {
	Report(source string, err error)
}

// Options configure a Controller.
type Options struct {
	Reporter Reporter
	Logger   zerolog.Logger
	// OnConnected runs after every successful connect request.
	OnConnected func()
}

// Controller owns the connection state.
type Controller struct {
	port        backend.Port
	reporter    Reporter
	log         zerolog.Logger
	onConnected func()

	mu            sync.Mutex
	state         State
	seq           uint64
	everConnected bool
	nextObserver  int
	observers     map[int]func(Change)
}

// New returns a Controller in the Disconnected state.
func New(port backend.Port, opts Options) *Controller {
	return &Controller{
		port:        port,
		reporter:    opts.Reporter,
		log:         opts.Logger.With().Str("component", "connection").Logger(),
		onConnected: opts.OnConnected,
		observers:   make(map[int]func(Change)),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Seq returns the number of applied transitions.
func (c *Controller) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Subscribe registers fn for every state change. fn runs synchronously
// outside the controller lock.
func (c *Controller) Subscribe(fn func(Change)) func() {
	c.mu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// RequestConnect opens a session. It is a no-op when already connected or
// connecting. The first session uses connect, later ones reconnect.
func (c *Controller) RequestConnect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Connected, Connecting:
		c.mu.Unlock()
		return nil
	case Disconnecting:
		c.mu.Unlock()
		return ErrBusy
	}
	cmd, open := backend.CmdConnect, backend.Connect
	if c.everConnected {
		cmd, open = backend.CmdReconnect, backend.Reconnect
	}
	change := c.setLocked(Connecting, CauseIntent)
	seq := c.seq
	c.mu.Unlock()
	c.notify(change)

	err := open(ctx, c.port)

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		c.discardStale(cmd)
		return nil
	}
	if err != nil {
		change = c.setLocked(Disconnected, CauseRollback)
		c.mu.Unlock()
		c.notify(change)
		c.report(err)
		return err
	}
	c.everConnected = true
	change = c.setLocked(Connected, CauseCommand)
	c.mu.Unlock()
	c.notify(change)

	c.log.Info().Str("command", string(cmd)).Msg("connected")
	if c.onConnected != nil {
		c.onConnected()
	}
	return nil
}

// RequestDisconnect closes the session. On failure the state rolls back to
// Connected.
func (c *Controller) RequestDisconnect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Disconnected, Disconnecting:
		c.mu.Unlock()
		return nil
	case Connecting:
		c.mu.Unlock()
		return ErrBusy
	}
	change := c.setLocked(Disconnecting, CauseIntent)
	seq := c.seq
	c.mu.Unlock()
	c.notify(change)

	err := backend.Disconnect(ctx, c.port)

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		c.discardStale(backend.CmdDisconnect)
		return nil
	}
	if err != nil {
		change = c.setLocked(Connected, CauseRollback)
		c.mu.Unlock()
		c.notify(change)
		c.report(err)
		return err
	}
	change = c.setLocked(Disconnected, CauseCommand)
	c.mu.Unlock()
	c.notify(change)

	c.log.Info().Msg("disconnected")
	return nil
}

// Reconcile aligns the local state with the backend's answer without issuing
// a command. It does nothing while a transition is in flight and reports
// whether the state changed.
func (c *Controller) Reconcile(connected bool) bool {
	c.mu.Lock()
	change, ok := c.reconcileLocked(connected)
	c.mu.Unlock()
	if ok {
		c.notify(change)
	}
	return ok
}

// Sync polls is_connected once and reconciles. An answer that arrives after a
// newer transition is dropped.
func (c *Controller) Sync(ctx context.Context) error {
	c.mu.Lock()
	seq := c.seq
	c.mu.Unlock()

	connected, err := backend.IsConnected(ctx, c.port)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		c.discardStale(backend.CmdIsConnected)
		return nil
	}
	change, ok := c.reconcileLocked(connected)
	c.mu.Unlock()
	if ok {
		c.notify(change)
	}
	return nil
}

func (c *Controller) reconcileLocked(connected bool) (Change, bool) {
	if c.state.InFlight() {
		return Change{}, false
	}
	target := Disconnected
	if connected {
		target = Connected
		c.everConnected = true
	}
	if c.state == target {
		return Change{}, false
	}
	c.log.Info().Stringer("from", c.state).Stringer("to", target).Msg("reconciled with backend")
	return c.setLocked(target, CauseReconcile), true
}

func (c *Controller) setLocked(to State, cause Cause) Change {
	c.seq++
	change := Change{From: c.state, To: to, Seq: c.seq, Cause: cause}
	c.state = to
	metrics.RecordTransition("connection", to.String())
	return change
}

func (c *Controller) notify(change Change) {
	c.mu.Lock()
	observers := make([]func(Change), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()
	for _, fn := range observers {
		fn(change)
	}
}

func (c *Controller) discardStale(cmd backend.Command) {
	metrics.RecordStale("connection")
	c.log.Debug().Str("command", string(cmd)).Err(backend.ErrStaleResult).Msg("dropping late result")
}

func (c *Controller) report(err error) {
	c.log.Error().Err(err).Msg("connection command failed")
	if c.reporter != nil {
		c.reporter.Report("connection", err)
	}
}
