package valuation

import (
	"context"
	"testing"
	"time"

	"AprSight/internal/domain/models"
)

type fakeSurvivalStore struct {
	curves map[models.Tier]*models.SurvivalCurve
}

func (f *fakeSurvivalStore) ReplaceCurve(ctx context.Context, curve *models.SurvivalCurve) error {
	if f.curves == nil {
		f.curves = make(map[models.Tier]*models.SurvivalCurve)
	}
	f.curves[curve.Tier] = curve
	return nil
}

func (f *fakeSurvivalStore) Curve(ctx context.Context, tier models.Tier) (*models.SurvivalCurve, error) {
	return f.curves[tier], nil
}

func (f *fakeSurvivalStore) ClosedDurations(ctx context.Context, tier models.Tier, since time.Time) ([]int, error) {
	return nil, nil
}

func TestParametricCurveMonotonic(t *testing.T) {
	for _, tier := range models.Tiers() {
		curve := ParametricCurve(tier, 60)
		if curve.Len() != 60 {
			t.Fatalf("tier %s: curve length %d, want 60", tier, curve.Len())
		}
		if curve.Probs[0] != 1.0 {
			t.Fatalf("tier %s: S(0) = %v, want 1.0", tier, curve.Probs[0])
		}
		for i := 1; i < curve.Len(); i++ {
			if curve.Probs[i] > curve.Probs[i-1] {
				t.Fatalf("tier %s: curve increases at minute %d", tier, i)
			}
			if curve.Probs[i] < 0 || curve.Probs[i] > 1 {
				t.Fatalf("tier %s: probability out of range at %d: %v", tier, i, curve.Probs[i])
			}
		}
	}
}

func TestHigherTierDecaysFaster(t *testing.T) {
	low := ParametricCurve(models.Tier100to200, 60)
	high := ParametricCurve(models.Tier400Plus, 60)
	if high.Probs[30] >= low.Probs[30] {
		t.Fatalf("400+ should decay faster: got %v vs %v", high.Probs[30], low.Probs[30])
	}
}

func TestKaplanMeierCurve(t *testing.T) {
	// 4 positions decayed at minute 10, 4 survived past minute 30.
	durations := []int{10, 10, 10, 10, 30, 30, 30, 30}
	observed := []bool{true, true, true, true, false, false, false, false}

	curve := KaplanMeierCurve(models.Tier200to400, durations, observed, 60)

	if curve.Probs[5] != 1.0 {
		t.Fatalf("S(5) = %v, want 1.0 before any event", curve.Probs[5])
	}
	// At minute 10: 4 deaths out of 8 at risk, S drops to 0.5.
	if got := curve.Probs[10]; got != 0.5 {
		t.Fatalf("S(10) = %v, want 0.5", got)
	}
	// Censoring at 30 removes subjects without dropping survival.
	if got := curve.Probs[40]; got != 0.5 {
		t.Fatalf("S(40) = %v, want 0.5 after censoring", got)
	}
	for i := 1; i < curve.Len(); i++ {
		if curve.Probs[i] > curve.Probs[i-1] {
			t.Fatalf("KM curve increases at minute %d", i)
		}
	}
}

func TestTierAssignment(t *testing.T) {
	cases := []struct {
		apr  float64
		want models.Tier
	}{
		{120, models.Tier100to200},
		{199.9, models.Tier100to200},
		{200, models.Tier200to400},
		{399, models.Tier200to400},
		{400, models.Tier400Plus},
		{900, models.Tier400Plus},
	}
	for _, tc := range cases {
		if got := models.TierFor(tc.apr); got != tc.want {
			t.Fatalf("TierFor(%v) = %s, want %s", tc.apr, got, tc.want)
		}
	}
}

func TestRAEVDecreasesWithVolatility(t *testing.T) {
	v := NewValuer(&fakeSurvivalStore{}, 0.5, 60)
	ctx := context.Background()

	lowVol, err := v.RAEV(ctx, 150, 0.5, 0.01, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	highVol, err := v.RAEV(ctx, 150, 2.0, 0.01, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if highVol >= lowVol {
		t.Fatalf("RA-EV should fall as volatility rises: %v vs %v", highVol, lowVol)
	}
	// The penalty is exactly risk_aversion * delta_vol.
	if diff := lowVol - highVol; diff < 0.74 || diff > 0.76 {
		t.Fatalf("volatility penalty: got %v, want 0.75", diff)
	}
}

func TestRAEVDecreasesWithBorrowCost(t *testing.T) {
	v := NewValuer(&fakeSurvivalStore{}, 0.5, 60)
	ctx := context.Background()

	cheap, _ := v.RAEV(ctx, 150, 0.1, 0.0, 60)
	dear, _ := v.RAEV(ctx, 150, 0.1, 0.5, 60)
	if dear >= cheap {
		t.Fatalf("RA-EV should fall as borrow cost rises: %v vs %v", dear, cheap)
	}
}

func TestRAEVIncreasesWithSurvival(t *testing.T) {
	store := &fakeSurvivalStore{}
	sure := make([]float64, 60)
	for i := range sure {
		sure[i] = 1.0
	}
	_ = store.ReplaceCurve(context.Background(), &models.SurvivalCurve{
		Tier:  models.Tier100to200,
		Probs: sure,
	})

	withCurve := NewValuer(store, 0.5, 60)
	parametric := NewValuer(&fakeSurvivalStore{}, 0.5, 60)

	ctx := context.Background()
	strong, _ := withCurve.RAEV(ctx, 150, 0.1, 0.0, 60)
	weak, _ := parametric.RAEV(ctx, 150, 0.1, 0.0, 60)
	if strong <= weak {
		t.Fatalf("higher survival should raise RA-EV: %v vs %v", strong, weak)
	}
}

func TestRAEVHorizonClampedToCurve(t *testing.T) {
	v := NewValuer(&fakeSurvivalStore{}, 0.0, 60)
	ctx := context.Background()

	h60, _ := v.RAEV(ctx, 150, 0, 0, 60)
	h600, _ := v.RAEV(ctx, 150, 0, 0, 600)
	if h60 != h600 {
		t.Fatalf("horizon beyond curve length should clamp: %v vs %v", h60, h600)
	}
}
