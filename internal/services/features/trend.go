package features

import (
	"math"

	"AprSight/internal/domain/models"
)

// trendThreshold is the minimum EMA divergence for a directional call.
const trendThreshold = 0.5

// AnalyzeTrend classifies an observation history by EMA crossover: the
// fast EMA above the slow one beyond the threshold reads UP, below it
// DOWN, inside the band FLAT. Histories under two points are NEUTRAL.
// The history must be sorted by timestamp ascending.
func AnalyzeTrend(history []*models.Observation) models.TrendAnalysis {
	if len(history) < 2 {
		return models.TrendAnalysis{Direction: "NEUTRAL"}
	}

	series := make([]float64, len(history))
	for i, o := range history {
		series[i] = o.APR
	}
	fast := ema(series, shortSpan)
	slow := ema(series, longSpan)
	diff := fast - slow

	ta := models.TrendAnalysis{
		Direction: "FLAT",
		ShortEMA:  round(fast, 2),
		LongEMA:   round(slow, 2),
	}
	if math.Abs(diff) <= trendThreshold {
		return ta
	}

	if diff > 0 {
		ta.Direction = "UP"
	} else {
		ta.Direction = "DOWN"
	}
	base := slow
	if base == 0 {
		base = 1
	}
	ta.Strength = round(math.Min(100, math.Abs(diff)/base*1000), 1)
	return ta
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
