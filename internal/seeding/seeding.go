// Package seeding tracks whether the backend is offering files to peers.
package seeding

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/backend"
	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/metrics"
)

// State is the local view of seeding.
type State int

const (
	Off State = iota
	TurningOn
	On
	TurningOff
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case TurningOn:
		return "turning on"
	case On:
		return "on"
	case TurningOff:
		return "turning off"
	default:
		return "unknown"
	}
}

// InFlight reports whether a command is outstanding for this state.
func (s State) InFlight() bool {
	return s == TurningOn || s == TurningOff
}

// Cause says why a state change happened.
type Cause string

const (
	CauseIntent     Cause = "intent"
	CauseCommand    Cause = "command"
	CauseRollback   Cause = "rollback"
	CauseReconcile  Cause = "reconcile"
	CauseDisconnect Cause = "disconnect"
)

// Change describes one state transition.
type Change struct {
	From  State
	To    State
	Seq   uint64
	Cause Cause
}

var (
	// ErrNotConnected is returned when seeding is requested without a session.
	ErrNotConnected = errors.New("seeding: not connected")
	// ErrBusy is returned when an opposite request arrives mid-transition.
	ErrBusy = errors.New("seeding: transition in progress")
)

// Connection is the part of the connection controller seeding depends on.
type Connection interface {
	State() connection.State
	Subscribe(fn func(connection.Change)) func()
}

// Reporter receives errors that should surface to the user.
type Reporter interface {
	Report(source string, err error)
}

// Options configure a Controller.
type Options struct {
	Reporter Reporter
	Logger   zerolog.Logger
}

// Controller owns the seeding state.
type Controller struct {
	port     backend.Port
	reporter Reporter
	log      zerolog.Logger

	mu           sync.Mutex
	conn         Connection
	state        State
	seq          uint64
	nextObserver int
	observers    map[int]func(Change)
}

// New returns a Controller in the Off state.
func New(port backend.Port, opts Options) *Controller {
	return &Controller{
		port:      port,
		reporter:  opts.Reporter,
		log:       opts.Logger.With().Str("component", "seeding").Logger(),
		observers: make(map[int]func(Change)),
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

// Follow ties seeding to conn. Whenever conn becomes Disconnected seeding is
// forced Off without a stop_seeding call, and any outstanding start or stop
// result is dropped.
func (c *Controller) Follow(conn Connection) func() {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	return conn.Subscribe(func(ch connection.Change) {
		if ch.To != connection.Disconnected {
			return
		}
		c.mu.Lock()
		if c.state == Off {
			c.mu.Unlock()
			return
		}
		change := c.setLocked(Off, CauseDisconnect)
		c.mu.Unlock()
		c.log.Info().Stringer("from", change.From).Msg("connection lost, seeding forced off")
		c.notify(change)
	})
}

// RequestStart turns seeding on. It requires an open session.
func (c *Controller) RequestStart(ctx context.Context) error {
	c.mu.Lock()
	if c.conn == nil || c.conn.State() != connection.Connected {
		c.mu.Unlock()
		c.report(ErrNotConnected)
		return ErrNotConnected
	}
	switch c.state {
	case On, TurningOn:
		c.mu.Unlock()
		return nil
	case TurningOff:
		c.mu.Unlock()
		return ErrBusy
	}
	change := c.setLocked(TurningOn, CauseIntent)
	c.mu.Unlock()
	c.notify(change)

	return c.finish(backend.StartSeeding(ctx, c.port), backend.CmdStartSeeding, change.Seq, On, Off)
}

// RequestStop turns seeding off. On failure the state rolls back to On.
func (c *Controller) RequestStop(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Off, TurningOff:
		c.mu.Unlock()
		return nil
	case TurningOn:
		c.mu.Unlock()
		return ErrBusy
	}
	change := c.setLocked(TurningOff, CauseIntent)
	c.mu.Unlock()
	c.notify(change)

	return c.finish(backend.StopSeeding(ctx, c.port), backend.CmdStopSeeding, change.Seq, Off, On)
}

func (c *Controller) finish(err error, cmd backend.Command, seq uint64, success, rollback State) error {
	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		c.discardStale(cmd)
		return nil
	}
	if err != nil {
		change := c.setLocked(rollback, CauseRollback)
		c.mu.Unlock()
		c.notify(change)
		c.report(err)
		return err
	}
	change := c.setLocked(success, CauseCommand)
	c.mu.Unlock()
	c.log.Info().Stringer("state", success).Msg("seeding changed")
	c.notify(change)
	return nil
}

// Reconcile aligns the local state with the backend's answer unless a
// transition is in flight. Seeding is held Off while the followed connection
// is not Connected. It reports whether the state changed.
func (c *Controller) Reconcile(seeding bool) bool {
	c.mu.Lock()
	change, ok := c.reconcileLocked(seeding)
	c.mu.Unlock()
	if ok {
		c.notify(change)
	}
	return ok
}

// Sync polls is_seeding once and reconciles. An answer that arrives after a
// newer transition is dropped.
func (c *Controller) Sync(ctx context.Context) error {
	c.mu.Lock()
	seq := c.seq
	c.mu.Unlock()

	seeding, err := backend.IsSeeding(ctx, c.port)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		c.discardStale(backend.CmdIsSeeding)
		return nil
	}
	change, ok := c.reconcileLocked(seeding)
	c.mu.Unlock()
	if ok {
		c.notify(change)
	}
	return nil
}

func (c *Controller) reconcileLocked(seeding bool) (Change, bool) {
	if c.state.InFlight() {
		return Change{}, false
	}
	target := Off
	if seeding {
		if c.conn != nil && c.conn.State() != connection.Connected {
			c.log.Debug().Msg("ignoring is_seeding=true without a session")
		} else {
			target = On
		}
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
	metrics.RecordTransition("seeding", to.String())
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
	metrics.RecordStale("seeding")
	c.log.Debug().Str("command", string(cmd)).Err(backend.ErrStaleResult).Msg("dropping late result")
}

func (c *Controller) report(err error) {
	c.log.Error().Err(err).Msg("seeding command failed")
	if c.reporter != nil {
		c.reporter.Report("seeding", err)
	}
}
