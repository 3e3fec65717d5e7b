package usecase

import (
	"context"
	"errors"
	"testing"
)

func TestObservationsHandlerStoresBatch(t *testing.T) {
	store := &fakeHistoryStore{}
	h := NewObservationsHandler("apr.observations", store, newFakeMetrics())

	msg := []byte(`{
		"source": "defi-collector",
		"observations": [
			{"currency": "SOL", "timestamp": "2026-08-30T12:00:00Z", "net_apr": 150.5, "tvl": 1200000},
			{"currency": "DAI", "timestamp": "2026-08-30T12:00:00Z", "net_apr": 8.2, "tvl": 9000000}
		]
	}`)

	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.series["SOL"]) != 1 || len(store.series["DAI"]) != 1 {
		t.Fatalf("expected one observation per currency, got %d/%d",
			len(store.series["SOL"]), len(store.series["DAI"]))
	}
	obs := store.series["SOL"][0]
	if obs.APR != 150.5 || obs.Source != "defi-collector" {
		t.Fatalf("unexpected observation: %+v", obs)
	}

	if len(store.runs) != 1 {
		t.Fatalf("expected one ingest run recorded, got %d", len(store.runs))
	}
	run := store.runs[0]
	if run.Source != "defi-collector" || run.Rows != 2 || run.Status != "ok" || run.Error != "" {
		t.Fatalf("unexpected ingest run: %+v", run)
	}
	if run.RunID == "" || run.FinishedAt.Before(run.StartedAt) {
		t.Fatalf("malformed ingest run: %+v", run)
	}
}

func TestObservationsHandlerRecordsFailedRun(t *testing.T) {
	store := &fakeHistoryStore{failBatch: errors.New("clickhouse down")}
	h := NewObservationsHandler("apr.observations", store, newFakeMetrics())

	msg := []byte(`{
		"source": "defi-collector",
		"observations": [
			{"currency": "SOL", "timestamp": "2026-08-30T12:00:00Z", "net_apr": 150.5}
		]
	}`)

	if err := h.Handle(context.Background(), msg); err == nil {
		t.Fatal("expected store error to propagate")
	}
	if len(store.runs) != 1 {
		t.Fatalf("expected the failed run recorded, got %d", len(store.runs))
	}
	run := store.runs[0]
	if run.Status != "error" || run.Error == "" || run.Rows != 1 {
		t.Fatalf("unexpected ingest run: %+v", run)
	}
}

func TestObservationsHandlerSkipsMalformedEntries(t *testing.T) {
	store := &fakeHistoryStore{}
	metrics := newFakeMetrics()
	h := NewObservationsHandler("apr.observations", store, metrics)

	msg := []byte(`{
		"source": "defi-collector",
		"observations": [
			{"currency": "", "timestamp": "2026-08-30T12:00:00Z", "net_apr": 10},
			{"currency": "SOL", "timestamp": "not-a-time", "net_apr": 10},
			{"currency": "DAI", "timestamp": "2026-08-30T12:00:00Z", "net_apr": 8.2}
		]
	}`)

	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.series) != 1 || len(store.series["DAI"]) != 1 {
		t.Fatalf("expected only the valid entry stored, got %+v", store.series)
	}
	if metrics.errors["consumer_bad_timestamp"] != 1 {
		t.Fatalf("errors: %+v", metrics.errors)
	}
}

func TestObservationsHandlerRejectsBadJSON(t *testing.T) {
	h := NewObservationsHandler("apr.observations", &fakeHistoryStore{}, newFakeMetrics())
	if err := h.Handle(context.Background(), []byte(`{bad`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
