package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"AprSight/internal/domain/models"
)

type recordingSurvivalStore struct {
	mu        sync.Mutex
	replaced  map[models.Tier]*models.SurvivalCurve
	durations map[models.Tier][]int
}

func (r *recordingSurvivalStore) ReplaceCurve(ctx context.Context, curve *models.SurvivalCurve) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaced == nil {
		r.replaced = make(map[models.Tier]*models.SurvivalCurve)
	}
	r.replaced[curve.Tier] = curve
	return nil
}

func (r *recordingSurvivalStore) Curve(ctx context.Context, tier models.Tier) (*models.SurvivalCurve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaced[tier], nil
}

func (r *recordingSurvivalStore) ClosedDurations(ctx context.Context, tier models.Tier, since time.Time) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.durations[tier], nil
}

func TestMaintenanceFallsBackToParametric(t *testing.T) {
	store := &recordingSurvivalStore{}
	job := NewSurvivalMaintenanceJob(store, newFakeMetrics(), nil, 60, 30)

	err := job.Handle(context.Background(), map[string]interface{}{
		"triggered_at": "2026-08-30T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tier := range models.Tiers() {
		curve := store.replaced[tier]
		if curve == nil {
			t.Fatalf("tier %s: no curve written", tier)
		}
		if curve.Source != "parametric" {
			t.Fatalf("tier %s: source %s, want parametric with no samples", tier, curve.Source)
		}
		if curve.Len() != 60 {
			t.Fatalf("tier %s: length %d, want 60", tier, curve.Len())
		}
	}
}

func TestMaintenanceFitsKaplanMeierWithEnoughSamples(t *testing.T) {
	durations := make([]int, 40)
	for i := range durations {
		durations[i] = 10 + i%20
	}
	store := &recordingSurvivalStore{
		durations: map[models.Tier][]int{models.Tier200to400: durations},
	}
	job := NewSurvivalMaintenanceJob(store, newFakeMetrics(), nil, 60, 30)

	if err := job.Handle(context.Background(), SurvivalMaintenancePayload{TriggeredAt: "2026-08-30T00:00:00Z"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fitted := store.replaced[models.Tier200to400]
	if fitted.Source != "kaplan-meier" {
		t.Fatalf("source: got %s, want kaplan-meier", fitted.Source)
	}
	for i := 1; i < fitted.Len(); i++ {
		if fitted.Probs[i] > fitted.Probs[i-1] {
			t.Fatalf("fitted curve increases at minute %d", i)
		}
	}
	// Tiers without samples keep the parametric fallback.
	if store.replaced[models.Tier100to200].Source != "parametric" {
		t.Fatal("thin tier should fall back to parametric")
	}
}
