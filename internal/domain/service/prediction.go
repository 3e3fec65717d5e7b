package service

import (
	"context"

	"AprSight/internal/domain/models"
)

// SignalConditioner cleans a raw APR series. Output has identical
// length and ordering; flagged samples are replaced, never dropped.
type SignalConditioner interface {
	Clean(series []float64) []float64
}

// FeatureExtractor derives rolling features from a cleaned series.
type FeatureExtractor interface {
	Extract(cleaned []float64) (models.Features, error)
}

// RegimeEngine maintains one belief vector per asset and updates it
// once per cycle from the latest features.
type RegimeEngine interface {
	Update(currency string, features models.Features) (models.BeliefVector, models.Regime, float64)
	Reset(currency string)
}

// Valuer computes risk-adjusted expected value for a signal.
type Valuer interface {
	RAEV(ctx context.Context, apr, volatility, borrowCost float64, horizonMinutes int) (float64, error)
}
