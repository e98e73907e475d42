// Package metrics provides Prometheus metrics for the peerdeck client.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peerdeck_commands_total",
			Help: "Backend commands issued, by outcome",
		},
		[]string{"command", "outcome"},
	)

	staleResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peerdeck_stale_results_total",
			Help: "Late async results discarded because newer state was already applied",
		},
		[]string{"controller"},
	)

	validationDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "peerdeck_validation_drops_total",
			Help: "File records dropped during validation",
		},
	)

	pollFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "peerdeck_poll_failures_total",
			Help: "Poll ticks that failed to reach the backend",
		},
	)

	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peerdeck_state_transitions_total",
			Help: "Controller state transitions, by target state",
		},
		[]string{"controller", "to"},
	)

	pushUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "peerdeck_push_updates_total",
			Help: "file-update notifications received from the backend",
		},
	)
)

// RecordCommand counts one backend command by outcome ("ok", "rejected", "transport").
func RecordCommand(command, outcome string) {
	commandsTotal.WithLabelValues(command, outcome).Inc()
}

// RecordStale counts a discarded late result.
func RecordStale(controller string) {
	staleResultsTotal.WithLabelValues(controller).Inc()
}

// RecordValidationDrops adds n dropped records.
func RecordValidationDrops(n int) {
	if n <= 0 {
		return
	}
	validationDropsTotal.Add(float64(n))
}

// RecordPollFailure counts a failed poll tick.
func RecordPollFailure() {
	pollFailuresTotal.Inc()
}

// RecordTransition counts a state change.
func RecordTransition(controller, to string) {
	stateTransitionsTotal.WithLabelValues(controller, to).Inc()
}

// RecordPushUpdate counts a received push update.
func RecordPushUpdate() {
	pushUpdatesTotal.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr is a no-op.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
