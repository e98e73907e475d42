// Package files owns the local file list: validation of backend batches,
// refresh coalescing, selection, and optimistic deletes.
package files

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/backend"
	"github.com/five82/peerdeck/internal/metrics"
)

// ErrNoHash is returned for actions that need a content hash the record lacks.
var ErrNoHash = errors.New("files: record has no hash")

// Reporter receives errors that should surface to the user.
type Reporter interface {
	Report(source string, err error)
}

// Options configure a Controller.
type Options struct {
	Reporter Reporter
	Logger   zerolog.Logger
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Records  []Record
	Selected string
	Version  uint64
}

// Controller owns the file collection and selection.
type Controller struct {
	port     backend.Port
	reporter Reporter
	log      zerolog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	coll     *Collection
	selected string
	version  uint64
	inflight *refreshCall
}

type refreshCall struct {
	waiters []chan error
}

// New returns a Controller with an empty collection.
func New(port backend.Port, opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		port:     port,
		reporter: opts.Reporter,
		log:      opts.Logger.With().Str("component", "files").Logger(),
		baseCtx:  ctx,
		cancel:   cancel,
		coll:     NewCollection(nil),
	}
}

// Close cancels any outstanding refresh.
func (c *Controller) Close() {
	c.cancel()
}

// Snapshot returns the records in arrival order with the selection.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Records:  c.coll.Records(),
		Selected: c.selected,
		Version:  c.version,
	}
}

// Get returns the record for key.
func (c *Controller) Get(key string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coll.Get(key)
}

// Select marks key as selected. Unknown keys are ignored and return false.
func (c *Controller) Select(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.coll.Get(key); !ok {
		return false
	}
	c.selected = key
	return true
}

// ClearSelection drops the selection.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.selected = ""
	c.mu.Unlock()
}

// ApplyPushUpdate replaces the collection with a pushed batch. Invalid
// records are dropped and returned.
func (c *Controller) ApplyPushUpdate(raw []backend.RawFile) []ValidationError {
	metrics.RecordPushUpdate()
	records, problems := Validate(raw)

	c.mu.Lock()
	c.replaceLocked(records)
	c.mu.Unlock()

	c.reportProblems(problems)
	c.log.Debug().Int("files", len(records)).Int("dropped", len(problems)).Msg("applied push update")
	return problems
}

// Refresh fetches the file list and waits for the result. Concurrent calls
// share one request.
func (c *Controller) Refresh(ctx context.Context) error {
	select {
	case err := <-c.RefreshAsync():
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshAsync starts a fetch, or joins the one in flight. The channel yields
// exactly one value. A result overtaken by a push update is dropped and
// yields nil.
func (c *Controller) RefreshAsync() <-chan error {
	ch := make(chan error, 1)

	c.mu.Lock()
	if c.inflight != nil {
		c.inflight.waiters = append(c.inflight.waiters, ch)
		c.mu.Unlock()
		return ch
	}
	call := &refreshCall{waiters: []chan error{ch}}
	c.inflight = call
	version := c.version
	c.mu.Unlock()

	go c.runRefresh(call, version)
	return ch
}

func (c *Controller) runRefresh(call *refreshCall, version uint64) {
	raw, err := backend.AvailableFiles(c.baseCtx, c.port)

	var problems []ValidationError
	c.mu.Lock()
	c.inflight = nil
	switch {
	case err != nil:
	case c.version != version:
		metrics.RecordStale("files")
		c.log.Debug().Err(backend.ErrStaleResult).Msg("dropping refresh overtaken by push update")
	default:
		var records []Record
		records, problems = Validate(raw)
		c.replaceLocked(records)
	}
	c.mu.Unlock()

	if err != nil {
		c.report(err)
	}
	c.reportProblems(problems)
	for _, w := range call.waiters {
		w <- err
		close(w)
	}
}

// Delete removes key locally, then asks the backend to delete it. On failure
// the record reappears in its old slot unless the list was replaced in the
// meantime.
func (c *Controller) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	rec, ok := c.coll.Get(key)
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if rec.Hash == "" {
		c.mu.Unlock()
		c.report(ErrNoHash)
		return ErrNoHash
	}
	c.coll.hide(key)
	if c.selected == key {
		c.selected = ""
	}
	coll := c.coll
	c.mu.Unlock()

	err := backend.DeleteFile(ctx, c.port, rec.Hash)

	c.mu.Lock()
	if err == nil {
		coll.drop(key)
		c.mu.Unlock()
		c.log.Info().Str("name", rec.Name).Str("hash", rec.Hash).Msg("file deleted")
		return nil
	}
	if coll == c.coll {
		coll.restore(key)
	} else {
		metrics.RecordStale("files")
	}
	c.mu.Unlock()
	c.report(err)
	return err
}

// Download asks the backend to fetch the file behind key. Local state is
// never touched.
func (c *Controller) Download(ctx context.Context, key string) error {
	c.mu.Lock()
	rec, ok := c.coll.Get(key)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if rec.Hash == "" {
		c.report(ErrNoHash)
		return ErrNoHash
	}
	if err := backend.Download(ctx, c.port, rec.Hash); err != nil {
		c.report(err)
		return err
	}
	c.log.Info().Str("name", rec.Name).Str("hash", rec.Hash).Msg("download requested")
	return nil
}

func (c *Controller) replaceLocked(records []Record) {
	c.coll = NewCollection(records)
	c.version++
	if c.selected != "" {
		if _, ok := c.coll.Get(c.selected); !ok {
			c.selected = ""
		}
	}
}

func (c *Controller) reportProblems(problems []ValidationError) {
	if len(problems) == 0 {
		return
	}
	metrics.RecordValidationDrops(len(problems))
	for _, p := range problems {
		c.log.Warn().Int("index", p.Index).Str("name", p.Name).Str("reason", p.Reason).Msg("dropped file record")
		if c.reporter != nil {
			c.reporter.Report("files", p)
		}
	}
}

func (c *Controller) report(err error) {
	c.log.Error().Err(err).Msg("file command failed")
	if c.reporter != nil {
		c.reporter.Report("files", err)
	}
}
