package regime

import (
	"sync"

	"AprSight/internal/domain/models"
	domsvc "AprSight/internal/domain/service"
)

// Transition matrix, rows = from-state, each summing to 1.
// Low APR tends to stay low; Rising either sustains or breaks out to
// High; High eventually decays; Decay resolves back toward Low.
var transitions = [models.NumRegimes][models.NumRegimes]float64{
	{0.90, 0.10, 0.00, 0.00}, // Low
	{0.05, 0.80, 0.15, 0.00}, // Rising
	{0.00, 0.00, 0.90, 0.10}, // High
	{0.20, 0.10, 0.00, 0.70}, // Decay
}

const (
	likelihoodHigh = 1.0
	likelihoodLow  = 0.1
)

// Engine runs one forward-algorithm step per asset per cycle against a
// fixed transition matrix and heuristic emission rules. Belief state is
// tracked independently per asset; assets follow their own regime paths.
type Engine struct {
	mu      sync.Mutex
	beliefs map[string]models.BeliefVector
}

func NewEngine() *Engine {
	return &Engine{
		beliefs: make(map[string]models.BeliefVector),
	}
}

// Update advances the belief vector for one asset from the latest
// features and returns the new belief, dominant regime, and confidence.
func (e *Engine) Update(currency string, features models.Features) (models.BeliefVector, models.Regime, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	belief, ok := e.beliefs[currency]
	if !ok {
		belief = models.InitialBelief()
	}

	prior := propagate(belief)
	likelihood := emissions(features)

	var posterior models.BeliefVector
	for i := range posterior {
		posterior[i] = prior[i] * likelihood[i]
	}
	posterior = posterior.Normalize()

	e.beliefs[currency] = posterior
	regime, confidence := posterior.ArgMax()
	return posterior, regime, confidence
}

// Reset drops the stored belief for an asset, returning it to the prior
// on the next update.
func (e *Engine) Reset(currency string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.beliefs, currency)
}

// propagate computes belief * T.
func propagate(belief models.BeliefVector) models.BeliefVector {
	var out models.BeliefVector
	for to := 0; to < models.NumRegimes; to++ {
		var sum float64
		for from := 0; from < models.NumRegimes; from++ {
			sum += belief[from] * transitions[from][to]
		}
		out[to] = sum
	}
	return out
}

// emissions maps the feature tuple to per-state likelihoods.
// Each state gets a high likelihood when its signature holds and a low
// fixed likelihood otherwise; the vector is normalized to sum to 1.
func emissions(f models.Features) models.BeliefVector {
	lik := models.BeliefVector{likelihoodLow, likelihoodLow, likelihoodLow, likelihoodLow}

	if f.APRClean < 50 && f.Slope > -1 && f.Slope < 1 {
		lik[models.RegimeLow] = likelihoodHigh
	}
	if f.Slope > 1 && f.Divergence > 0 {
		lik[models.RegimeRising] = likelihoodHigh
	}
	if f.APRClean > 100 {
		lik[models.RegimeHigh] = likelihoodHigh
	}
	if f.Slope < -1 {
		lik[models.RegimeDecay] = likelihoodHigh
	}

	return lik.Normalize()
}

var _ domsvc.RegimeEngine = (*Engine)(nil)
