package regime

import (
	"math"
	"testing"

	"AprSight/internal/domain/models"
)

func beliefSum(b models.BeliefVector) float64 {
	var sum float64
	for _, v := range b {
		sum += v
	}
	return sum
}

func TestUpdateBeliefSumsToOne(t *testing.T) {
	e := NewEngine()
	inputs := []models.Features{
		{APRClean: 20, Slope: 0.1, Divergence: 0},
		{APRClean: 80, Slope: 5, Divergence: 3},
		{APRClean: 250, Slope: 0.5, Divergence: 1},
		{APRClean: 150, Slope: -8, Divergence: -5},
	}

	for i, f := range inputs {
		belief, _, _ := e.Update("USDT", f)
		if math.Abs(beliefSum(belief)-1.0) > 1e-6 {
			t.Fatalf("step %d: belief sums to %v, want 1", i, beliefSum(belief))
		}
		for j, v := range belief {
			if v < 0 {
				t.Fatalf("step %d: negative probability at %d: %v", i, j, v)
			}
		}
	}
}

func TestLowAPRStaysLow(t *testing.T) {
	e := NewEngine()
	var regime models.Regime
	var confidence float64
	for i := 0; i < 5; i++ {
		_, regime, confidence = e.Update("DAI", models.Features{APRClean: 10, Slope: 0.2, Divergence: 0})
	}
	if regime != models.RegimeLow {
		t.Fatalf("regime: got %v, want Low", regime)
	}
	if confidence < 0.8 {
		t.Fatalf("confidence: got %v, want >= 0.8", confidence)
	}
}

func TestRampDetectedAsRising(t *testing.T) {
	e := NewEngine()
	var regime models.Regime
	for i := 0; i < 4; i++ {
		_, regime, _ = e.Update("SOL", models.Features{APRClean: 60, Slope: 6, Divergence: 4})
	}
	if regime != models.RegimeRising {
		t.Fatalf("regime: got %v, want Rising", regime)
	}
}

func TestSustainedHighAPRReachesHigh(t *testing.T) {
	e := NewEngine()
	// Breakout path: Low cannot jump straight to High, it must pass
	// through Rising.
	e.Update("APT", models.Features{APRClean: 60, Slope: 6, Divergence: 4})
	var regime models.Regime
	for i := 0; i < 10; i++ {
		_, regime, _ = e.Update("APT", models.Features{APRClean: 300, Slope: 0.5, Divergence: 1})
	}
	if regime != models.RegimeHigh {
		t.Fatalf("regime: got %v, want High", regime)
	}
}

func TestCollapseDetectedAsDecay(t *testing.T) {
	e := NewEngine()
	e.Update("BONK", models.Features{APRClean: 60, Slope: 6, Divergence: 4})
	for i := 0; i < 10; i++ {
		e.Update("BONK", models.Features{APRClean: 300, Slope: 0.5, Divergence: 1})
	}
	var regime models.Regime
	for i := 0; i < 4; i++ {
		_, regime, _ = e.Update("BONK", models.Features{APRClean: 80, Slope: -10, Divergence: -8})
	}
	if regime != models.RegimeDecay {
		t.Fatalf("regime: got %v, want Decay", regime)
	}
}

func TestBeliefsAreIndependentPerAsset(t *testing.T) {
	e := NewEngine()

	// Drive one asset into Rising, leave the other in Low.
	for i := 0; i < 5; i++ {
		e.Update("SOL", models.Features{APRClean: 60, Slope: 6, Divergence: 4})
		e.Update("DAI", models.Features{APRClean: 10, Slope: 0.1, Divergence: 0})
	}

	_, solRegime, _ := e.Update("SOL", models.Features{APRClean: 60, Slope: 6, Divergence: 4})
	_, daiRegime, _ := e.Update("DAI", models.Features{APRClean: 10, Slope: 0.1, Divergence: 0})

	if solRegime != models.RegimeRising {
		t.Fatalf("SOL regime: got %v, want Rising", solRegime)
	}
	if daiRegime != models.RegimeLow {
		t.Fatalf("DAI regime: got %v, want Low", daiRegime)
	}
}

func TestResetReturnsAssetToPrior(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 5; i++ {
		e.Update("SOL", models.Features{APRClean: 60, Slope: 6, Divergence: 4})
	}
	e.Reset("SOL")

	_, regime, _ := e.Update("SOL", models.Features{APRClean: 10, Slope: 0, Divergence: 0})
	if regime != models.RegimeLow {
		t.Fatalf("regime after reset: got %v, want Low", regime)
	}
}
