package valuation

import (
	"sort"
	"time"

	"AprSight/internal/domain/models"
)

// Per-minute decay rates assumed when history is too thin to fit a
// curve. Higher tiers decay faster.
var parametricDecayRates = map[models.Tier]float64{
	models.Tier100to200: 0.99,
	models.Tier200to400: 0.95,
	models.Tier400Plus:  0.90,
}

// ParametricCurve builds an exponential-decay survival curve for a tier.
func ParametricCurve(tier models.Tier, minutes int) *models.SurvivalCurve {
	rate, ok := parametricDecayRates[tier]
	if !ok {
		rate = 0.95
	}

	probs := make([]float64, minutes)
	p := 1.0
	for i := 0; i < minutes; i++ {
		probs[i] = p
		p *= rate
	}
	return &models.SurvivalCurve{
		Tier:      tier,
		Probs:     probs,
		Source:    "parametric",
		UpdatedAt: time.Now().UTC(),
	}
}

// KaplanMeierCurve fits a survival curve from observed position
// lifetimes. durations are minutes until decay or censoring; observed
// marks whether the decay actually happened (false = still active when
// measured). The fitted step function is sampled per minute up to
// the requested length.
func KaplanMeierCurve(tier models.Tier, durations []int, observed []bool, minutes int) *models.SurvivalCurve {
	type point struct {
		t      int
		deaths int
		total  int
	}

	byTime := make(map[int]*point)
	for i, d := range durations {
		p, ok := byTime[d]
		if !ok {
			p = &point{t: d}
			byTime[d] = p
		}
		p.total++
		if i < len(observed) && observed[i] {
			p.deaths++
		}
	}

	points := make([]*point, 0, len(byTime))
	for _, p := range byTime {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].t < points[j].t })

	// At-risk count at time t is everyone with duration >= t.
	atRisk := len(durations)

	probs := make([]float64, minutes)
	surv := 1.0
	idx := 0
	for minute := 0; minute < minutes; minute++ {
		for idx < len(points) && points[idx].t <= minute {
			p := points[idx]
			if atRisk > 0 {
				surv *= 1.0 - float64(p.deaths)/float64(atRisk)
			}
			atRisk -= p.total
			idx++
		}
		if surv < 0 {
			surv = 0
		}
		probs[minute] = surv
	}

	return &models.SurvivalCurve{
		Tier:      tier,
		Probs:     probs,
		Source:    "kaplan-meier",
		UpdatedAt: time.Now().UTC(),
	}
}
