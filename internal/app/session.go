package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/backend"
	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/files"
	"github.com/five82/peerdeck/internal/seeding"
	"github.com/five82/peerdeck/internal/state"
	"github.com/five82/peerdeck/internal/view"
)

// Session wires the three controllers to one backend port.
type Session struct {
	Conn     *connection.Controller
	Seed     *seeding.Controller
	Files    *files.Controller
	Store    *state.Store
	Collator *view.Collator

	// RefreshRequests carries the local refresh-request signal. Connection
	// success and the UI's refresh key both feed it.
	RefreshRequests chan struct{}

	port backend.Port
	log  zerolog.Logger

	closeOnce sync.Once
	cleanups  []func()
}

// SessionOptions configure NewSession.
type SessionOptions struct {
	Store  *state.Store
	Locale string
	Logger zerolog.Logger
}

// NewSession builds the controllers and subscribes to push updates. Call
// Close to release the subscriptions.
func NewSession(port backend.Port, opts SessionOptions) *Session {
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	s := &Session{
		Store:           store,
		Collator:        view.NewCollator(opts.Locale),
		RefreshRequests: make(chan struct{}, 1),
		port:            port,
		log:             opts.Logger.With().Str("component", "app").Logger(),
	}

	s.Conn = connection.New(port, connection.Options{
		Reporter:    store,
		Logger:      opts.Logger,
		OnConnected: s.RequestRefresh,
	})
	s.Seed = seeding.New(port, seeding.Options{Reporter: store, Logger: opts.Logger})
	s.Files = files.New(port, files.Options{Reporter: store, Logger: opts.Logger})

	s.cleanups = append(s.cleanups,
		s.Seed.Follow(s.Conn),
		port.Subscribe(backend.EventFileUpdate, s.handleFileUpdate),
		s.Files.Close,
	)
	return s
}

// RequestRefresh queues a file list refresh. Requests made while one is
// already queued collapse into it.
func (s *Session) RequestRefresh() {
	select {
	case s.RefreshRequests <- struct{}{}:
	default:
	}
}

// Rows projects the current file list.
func (s *Session) Rows(sort view.Sort) []view.Row {
	snap := s.Files.Snapshot()
	return view.Project(snap.Records, sort, snap.Selected, s.Collator)
}

// SyncOnce runs one reconciliation pass against the backend.
func (s *Session) SyncOnce(ctx context.Context) error {
	return pollOnce(ctx, s.targets())
}

func (s *Session) targets() []Target {
	return []Target{
		{Name: "connection", Sync: s.Conn.Sync},
		{Name: "seeding", Sync: s.Seed.Sync},
	}
}

// Start launches the poller and the refresh worker, queueing an initial
// refresh. The returned func stops both and waits for them to exit.
func (s *Session) Start(ctx context.Context, interval time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	stopPoller := StartPoller(ctx, s.Store, interval, s.log, s.targets()...)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.RefreshRequests:
				if err := s.Files.Refresh(ctx); err != nil && ctx.Err() == nil {
					s.log.Debug().Err(err).Msg("refresh failed")
				}
			}
		}
	}()
	s.RequestRefresh()

	return func() {
		cancel()
		stopPoller()
		wg.Wait()
	}
}

// Close releases push subscriptions and cancels outstanding refreshes.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, fn := range s.cleanups {
			fn()
		}
	})
}

func (s *Session) handleFileUpdate(payload json.RawMessage) {
	raw, err := backend.DecodeFiles(payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("malformed file-update payload")
		s.Store.Report("files", err)
		return
	}
	s.Files.ApplyPushUpdate(raw)
}
