package models

import (
	"encoding/json"
	"math"
)

// Regime identifies one of the four APR market states.
type Regime int

const (
	RegimeLow Regime = iota
	RegimeRising
	RegimeHigh
	RegimeDecay
)

// NumRegimes is the size of the state space.
const NumRegimes = 4

var regimeNames = [NumRegimes]string{"Low", "Rising", "High", "Decay"}

func (r Regime) String() string {
	if r < 0 || int(r) >= NumRegimes {
		return "Unknown"
	}
	return regimeNames[r]
}

// MarshalJSON encodes the regime by name.
func (r Regime) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a regime name; unknown names map to RegimeLow.
func (r *Regime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, _ := ParseRegime(s)
	*r = parsed
	return nil
}

// ParseRegime maps a state name back to its Regime. Returns RegimeLow
// and false on unknown input.
func ParseRegime(s string) (Regime, bool) {
	for i, name := range regimeNames {
		if name == s {
			return Regime(i), true
		}
	}
	return RegimeLow, false
}

// BeliefVector is a probability distribution over the regime states.
type BeliefVector [NumRegimes]float64

// InitialBelief is the prior used for an asset with no history.
func InitialBelief() BeliefVector {
	return BeliefVector{0.9, 0.1, 0.0, 0.0}
}

// Normalize scales the vector to sum to one. A small floor keeps a
// degenerate all-zero vector from producing NaN.
func (b BeliefVector) Normalize() BeliefVector {
	var sum float64
	for _, v := range b {
		sum += v
	}
	sum += 1e-9
	var out BeliefVector
	for i, v := range b {
		out[i] = v / sum
	}
	return out
}

// ArgMax returns the most probable regime and its probability.
func (b BeliefVector) ArgMax() (Regime, float64) {
	best := 0
	for i := 1; i < NumRegimes; i++ {
		if b[i] > b[best] {
			best = i
		}
	}
	return Regime(best), b[best]
}

// Valid reports whether the vector contains only finite entries.
func (b BeliefVector) Valid() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
