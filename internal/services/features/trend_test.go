package features

import (
	"testing"
	"time"

	"AprSight/internal/domain/models"
)

func obsSeries(values []float64) []*models.Observation {
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	out := make([]*models.Observation, len(values))
	for i, v := range values {
		out[i] = &models.Observation{
			Currency:  "USDT",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			APR:       v,
		}
	}
	return out
}

func TestAnalyzeTrendRisingSeries(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 100 + float64(i)*3
	}

	ta := AnalyzeTrend(obsSeries(values))
	if ta.Direction != "UP" {
		t.Fatalf("direction: got %q, want UP", ta.Direction)
	}
	if ta.ShortEMA <= ta.LongEMA {
		t.Fatalf("fast EMA %v should exceed slow EMA %v", ta.ShortEMA, ta.LongEMA)
	}
	if ta.Strength <= 0 || ta.Strength > 100 {
		t.Fatalf("strength out of range: %v", ta.Strength)
	}
}

func TestAnalyzeTrendFallingSeries(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 200 - float64(i)*3
	}

	ta := AnalyzeTrend(obsSeries(values))
	if ta.Direction != "DOWN" {
		t.Fatalf("direction: got %q, want DOWN", ta.Direction)
	}
	if ta.ShortEMA >= ta.LongEMA {
		t.Fatalf("fast EMA %v should trail slow EMA %v", ta.ShortEMA, ta.LongEMA)
	}
}

func TestAnalyzeTrendFlatInsideThreshold(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 150 // zero divergence stays inside the 0.5 band
	}

	ta := AnalyzeTrend(obsSeries(values))
	if ta.Direction != "FLAT" {
		t.Fatalf("direction: got %q, want FLAT", ta.Direction)
	}
	if ta.Strength != 0 {
		t.Fatalf("strength: got %v, want 0", ta.Strength)
	}
}

func TestAnalyzeTrendShortHistoryNeutral(t *testing.T) {
	ta := AnalyzeTrend(obsSeries([]float64{100}))
	if ta.Direction != "NEUTRAL" {
		t.Fatalf("direction: got %q, want NEUTRAL", ta.Direction)
	}
	if ta.Strength != 0 || ta.ShortEMA != 0 || ta.LongEMA != 0 {
		t.Fatalf("expected zero analysis, got %+v", ta)
	}
}
