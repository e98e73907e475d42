package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/metrics"
	"github.com/five82/peerdeck/internal/state"
)

const (
	defaultPollInterval = time.Second
	maxBackoff          = 30 * time.Second
)

// Target is one reconciliation step run on every poll tick.
type Target struct {
	Name string
	Sync func(context.Context) error
}

// StartPoller launches a background goroutine that reconciles each target at
// a fixed cadence, backing off while the backend is unreachable. It returns a
// stop func that cancels the goroutine and waits for it to exit.
func StartPoller(ctx context.Context, store *state.Store, interval time.Duration, log zerolog.Logger, targets ...Target) func() {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		failures := 0
		for {
			err := pollOnce(ctx, targets)
			if ctx.Err() != nil {
				return
			}
			store.RecordPoll(err)
			if err != nil {
				failures++
				metrics.RecordPollFailure()
				log.Warn().Err(err).Int("failures", failures).Msg("poll failed")
			} else {
				failures = 0
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

// pollOnce syncs targets in order and stops at the first failure.
func pollOnce(ctx context.Context, targets []Target) error {
	for _, t := range targets {
		if err := t.Sync(ctx); err != nil {
			return fmt.Errorf("poll %s: %w", t.Name, err)
		}
	}
	return nil
}

// calculateBackoff doubles base for each consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
