package models

import (
	"math"
	"time"
)

// FeatureSnapshot is the persisted per-cycle output for one asset.
// One row per (currency, timestamp); recomputation overwrites the row.
type FeatureSnapshot struct {
	Currency   string    `json:"currency"`
	Timestamp  time.Time `json:"timestamp"`
	APRRaw     float64   `json:"apr_raw"`
	APRClean   float64   `json:"apr_clean"`
	Slope      float64   `json:"slope"`
	Divergence float64   `json:"divergence"`
	Volatility float64   `json:"volatility"`
	Regime     Regime    `json:"regime"`
	Confidence float64   `json:"confidence"`
	RAEV       float64   `json:"ra_ev"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Features holds the rolling features derived from a cleaned APR series.
type Features struct {
	APRClean   float64
	Slope      float64
	Divergence float64
	Volatility float64
}

// Trend classifies the short-term APR direction. Slope and divergence
// must agree for a non-flat call.
func (f Features) Trend() string {
	switch {
	case f.Slope > 0 && f.Divergence > 0:
		return "rising"
	case f.Slope < 0 && f.Divergence < 0:
		return "falling"
	default:
		return "flat"
	}
}

// Valid reports whether all feature values are finite.
func (f Features) Valid() bool {
	for _, v := range []float64{f.APRClean, f.Slope, f.Divergence, f.Volatility} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// TrendAnalysis is an EMA-crossover read of an observation history.
// Direction is "UP", "DOWN", "FLAT", or "NEUTRAL" when the history is
// too short to call. Strength scales the EMA divergence into 0-100.
type TrendAnalysis struct {
	Direction string  `json:"trend"`
	Strength  float64 `json:"strength"`
	ShortEMA  float64 `json:"short_ema"`
	LongEMA   float64 `json:"long_ema"`
}

// HistoryResult pairs an asset's observation history with its trend
// analysis for the read API.
type HistoryResult struct {
	Token string         `json:"token"`
	Hours int            `json:"hours"`
	Count int            `json:"count"`
	Trend TrendAnalysis  `json:"trend_analysis"`
	Data  []*Observation `json:"data"`
}

// Signal is the ephemeral per-asset, per-cycle record handed from the
// prediction pipeline to the paper-trading simulator. Serialized into
// the trade row at open time for audit.
type Signal struct {
	Currency      string    `json:"currency"`
	APR           float64   `json:"apr"`
	Regime        Regime    `json:"-"`
	RegimeName    string    `json:"regime"`
	Confidence    float64   `json:"confidence"`
	RAEV          float64   `json:"ra_ev"`
	Volatility    float64   `json:"volatility"`
	Trend         string    `json:"trend"`
	BorrowCostAPR float64   `json:"borrow_cost_apr"`
	WithdrawalFee float64   `json:"withdrawal_fee"`
	Timestamp     time.Time `json:"timestamp"`
}
