package features

import (
	"math"
	"testing"
)

func TestExtractConstantSeries(t *testing.T) {
	e := NewExtractor()
	series := make([]float64, 30)
	for i := range series {
		series[i] = 25.0
	}

	f, err := e.Extract(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.APRClean != 25.0 {
		t.Fatalf("apr_clean: got %v, want 25.0", f.APRClean)
	}
	if f.Slope != 0 {
		t.Fatalf("slope: got %v, want 0", f.Slope)
	}
	if math.Abs(f.Divergence) > 1e-9 {
		t.Fatalf("divergence: got %v, want ~0", f.Divergence)
	}
	if f.Volatility != 0 {
		t.Fatalf("volatility: got %v, want 0", f.Volatility)
	}
}

func TestExtractRisingSeries(t *testing.T) {
	e := NewExtractor()
	series := make([]float64, 30)
	for i := range series {
		series[i] = 10.0 + 2.0*float64(i)
	}

	f, err := e.Extract(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Slope != 2.0 {
		t.Fatalf("slope: got %v, want 2.0", f.Slope)
	}
	// Fast EMA tracks a rising series closer than the slow EMA.
	if f.Divergence <= 0 {
		t.Fatalf("divergence: got %v, want > 0", f.Divergence)
	}
	// Constant increments have zero diff variance.
	if f.Volatility != 0 {
		t.Fatalf("volatility: got %v, want 0", f.Volatility)
	}
}

func TestExtractVolatilityPositiveForChoppySeries(t *testing.T) {
	e := NewExtractor()
	series := make([]float64, 40)
	for i := range series {
		if i%2 == 0 {
			series[i] = 50.0
		} else {
			series[i] = 60.0
		}
	}

	f, err := e.Extract(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Volatility <= 0 {
		t.Fatalf("volatility: got %v, want > 0", f.Volatility)
	}
}

func TestExtractTooShort(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract([]float64{5}); err == nil {
		t.Fatal("expected error for single-point series")
	}
	if _, err := e.Extract(nil); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestExtractRejectsNonFinite(t *testing.T) {
	e := NewExtractor()
	series := []float64{10, 11, math.NaN(), 12, 13}
	if _, err := e.Extract(series); err == nil {
		t.Fatal("expected error for NaN in series")
	}
}

func TestTrendDirection(t *testing.T) {
	e := NewExtractor()

	ramp := make([]float64, 30)
	for i := range ramp {
		ramp[i] = 50 + 2*float64(i)
	}
	f, err := e.Extract(ramp)
	if err != nil {
		t.Fatalf("extract ramp: %v", err)
	}
	if got := f.Trend(); got != "rising" {
		t.Fatalf("ramp trend = %q, want rising", got)
	}

	decay := make([]float64, 30)
	for i := range decay {
		decay[i] = 200 - 3*float64(i)
	}
	f, err = e.Extract(decay)
	if err != nil {
		t.Fatalf("extract decay: %v", err)
	}
	if got := f.Trend(); got != "falling" {
		t.Fatalf("decay trend = %q, want falling", got)
	}

	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 80.0
	}
	f, err = e.Extract(flat)
	if err != nil {
		t.Fatalf("extract flat: %v", err)
	}
	if got := f.Trend(); got != "flat" {
		t.Fatalf("flat trend = %q, want flat", got)
	}
}
