package features

import (
	"fmt"
	"math"

	"AprSight/internal/domain/models"
	domsvc "AprSight/internal/domain/service"
)

const (
	shortSpan = 5  // fast EMA span for divergence
	longSpan  = 20 // slow EMA span for divergence
	volWindow = 15 // rolling window over 1-step diffs
)

// Extractor derives rolling features from a cleaned APR series:
// slope (1-step diff), divergence (fast EMA minus slow EMA), and
// volatility (rolling std of 1-step diffs).
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the latest feature tuple. The series must hold at
// least two points so a slope exists.
func (e *Extractor) Extract(cleaned []float64) (models.Features, error) {
	if len(cleaned) < 2 {
		return models.Features{}, fmt.Errorf("series too short: %d points", len(cleaned))
	}

	latest := cleaned[len(cleaned)-1]
	slope := latest - cleaned[len(cleaned)-2]

	fast := ema(cleaned, shortSpan)
	slow := ema(cleaned, longSpan)
	divergence := fast - slow

	diffs := make([]float64, 0, len(cleaned)-1)
	for i := 1; i < len(cleaned); i++ {
		diffs = append(diffs, cleaned[i]-cleaned[i-1])
	}
	volatility := rollingStd(diffs, volWindow)

	f := models.Features{
		APRClean:   latest,
		Slope:      slope,
		Divergence: divergence,
		Volatility: volatility,
	}
	if !f.Valid() {
		return models.Features{}, fmt.Errorf("non-finite feature values")
	}
	return f, nil
}

// ema returns the exponential moving average over the whole series
// with smoothing 2/(span+1), seeded at the first sample.
func ema(series []float64, span int) float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	v := series[0]
	for _, x := range series[1:] {
		v = alpha*x + (1-alpha)*v
	}
	return v
}

// rollingStd returns the sample standard deviation of the trailing
// window. Falls back to the full series when it is shorter than the
// window, and zero when fewer than two points exist.
func rollingStd(series []float64, window int) float64 {
	if len(series) < 2 {
		return 0
	}
	if len(series) > window {
		series = series[len(series)-window:]
	}

	n := float64(len(series))
	var sum, sum2 float64
	for _, v := range series {
		sum += v
		sum2 += v * v
	}
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

var _ domsvc.FeatureExtractor = (*Extractor)(nil)
