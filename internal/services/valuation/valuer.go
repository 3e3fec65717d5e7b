package valuation

import (
	"context"
	"sync"
	"time"

	"AprSight/internal/domain/models"
	"AprSight/internal/domain/repository"
	domsvc "AprSight/internal/domain/service"
)

// One minute expressed in years.
const minuteYears = 1.0 / (365.0 * 24.0 * 60.0)

// Valuer computes survival-weighted risk-adjusted expected value.
// Curves are read from the store and cached briefly so a cycle over
// hundreds of assets does not hammer storage.
type Valuer struct {
	store        repository.SurvivalStore
	riskAversion float64
	curveMinutes int

	mu       sync.Mutex
	cache    map[models.Tier]*models.SurvivalCurve
	cachedAt time.Time
	cacheTTL time.Duration
}

// NewValuer creates a valuation engine. riskAversion scales the
// volatility penalty; curveMinutes is the fallback curve length.
func NewValuer(store repository.SurvivalStore, riskAversion float64, curveMinutes int) *Valuer {
	return &Valuer{
		store:        store,
		riskAversion: riskAversion,
		curveMinutes: curveMinutes,
		cache:        make(map[models.Tier]*models.SurvivalCurve),
		cacheTTL:     time.Minute,
	}
}

// RAEV computes expected survival-weighted yield over the horizon minus
// borrow cost and the volatility penalty.
func (v *Valuer) RAEV(ctx context.Context, apr, volatility, borrowCost float64, horizonMinutes int) (float64, error) {
	curve, err := v.curveFor(ctx, models.TierFor(apr))
	if err != nil {
		return 0, err
	}

	maxT := horizonMinutes
	if curve.Len() < maxT {
		maxT = curve.Len()
	}

	var expectedYield float64
	for t := 0; t < maxT; t++ {
		expectedYield += apr * curve.At(t) * minuteYears
	}

	return expectedYield - borrowCost - v.riskAversion*volatility, nil
}

func (v *Valuer) curveFor(ctx context.Context, tier models.Tier) (*models.SurvivalCurve, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if time.Since(v.cachedAt) > v.cacheTTL {
		v.cache = make(map[models.Tier]*models.SurvivalCurve)
		v.cachedAt = time.Now()
	}
	if c, ok := v.cache[tier]; ok {
		return c, nil
	}

	curve, err := v.store.Curve(ctx, tier)
	if err != nil || curve == nil || curve.Len() == 0 {
		// No fitted curve yet: fall back to the parametric assumption.
		curve = ParametricCurve(tier, v.curveMinutes)
	}

	v.cache[tier] = curve
	return curve, nil
}

var _ domsvc.Valuer = (*Valuer)(nil)
