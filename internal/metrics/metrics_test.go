package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersIncrementCounters(t *testing.T) {
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("connect", "ok"))
	RecordCommand("connect", "ok")
	if got := testutil.ToFloat64(commandsTotal.WithLabelValues("connect", "ok")); got != before+1 {
		t.Fatalf("commands_total = %v, want %v", got, before+1)
	}

	drops := testutil.ToFloat64(validationDropsTotal)
	RecordValidationDrops(0)
	RecordValidationDrops(-2)
	RecordValidationDrops(3)
	if got := testutil.ToFloat64(validationDropsTotal); got != drops+3 {
		t.Fatalf("validation_drops_total = %v, want %v", got, drops+3)
	}

	stale := testutil.ToFloat64(staleResultsTotal.WithLabelValues("files"))
	RecordStale("files")
	if got := testutil.ToFloat64(staleResultsTotal.WithLabelValues("files")); got != stale+1 {
		t.Fatalf("stale_results_total = %v, want %v", got, stale+1)
	}
}

func TestHandlerExposesPeerdeckMetrics(t *testing.T) {
	RecordTransition("seeding", "on")
	RecordPollFailure()
	RecordPushUpdate()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	for _, want := range []string{
		`peerdeck_state_transitions_total{controller="seeding",to="on"}`,
		"peerdeck_poll_failures_total",
		"peerdeck_push_updates_total",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("scrape output missing %q", want)
		}
	}
}

func TestServe(t *testing.T) {
	if err := Serve(context.Background(), ""); err != nil {
		t.Fatalf("Serve(\"\") = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve after cancel = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
