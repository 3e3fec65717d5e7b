package models

import "time"

// Tier is an APR magnitude band used to select a survival curve.
type Tier string

const (
	Tier100to200 Tier = "100-200"
	Tier200to400 Tier = "200-400"
	Tier400Plus  Tier = "400+"
)

// TierFor maps an APR level to its tier.
func TierFor(apr float64) Tier {
	switch {
	case apr < 200:
		return Tier100to200
	case apr < 400:
		return Tier200to400
	default:
		return Tier400Plus
	}
}

// Tiers lists all bands in ascending order.
func Tiers() []Tier {
	return []Tier{Tier100to200, Tier200to400, Tier400Plus}
}

// SurvivalCurve gives per-minute survival probabilities for one tier.
// Probabilities are non-increasing in minute and lie in [0,1].
type SurvivalCurve struct {
	Tier      Tier
	Probs     []float64 // index = minute offset
	Source    string    // "parametric" | "kaplan-meier"
	UpdatedAt time.Time
}

// At returns the survival probability at minute t, clamped to the
// last known point beyond the end of the curve.
func (c *SurvivalCurve) At(t int) float64 {
	if len(c.Probs) == 0 {
		return 1.0
	}
	if t < 0 {
		t = 0
	}
	if t >= len(c.Probs) {
		t = len(c.Probs) - 1
	}
	return c.Probs[t]
}

// Len returns the number of minutes covered by the curve.
func (c *SurvivalCurve) Len() int {
	return len(c.Probs)
}
