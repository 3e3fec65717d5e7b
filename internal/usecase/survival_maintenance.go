package usecase

import (
	"context"
	"fmt"
	"time"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
	"AprSight/internal/services/valuation"
	"AprSight/pkg/logger"
	"AprSight/pkg/queue"
)

// SurvivalMaintenanceJobName identifies the queue job that refits
// survival curves.
const SurvivalMaintenanceJobName = "survival_maintenance"

// SurvivalMaintenancePayload is the queue message for one maintenance run.
type SurvivalMaintenancePayload struct {
	TriggeredAt  string `json:"triggered_at"`
	LookbackDays int    `json:"lookback_days"`
}

// SurvivalMaintenanceJob recomputes the per-tier survival curves from
// closed trade lifetimes, falling back to the parametric decay
// assumption when a tier has too few samples. Curves are replaced
// wholesale per tier.
type SurvivalMaintenanceJob struct {
	store          domrepo.SurvivalStore
	metrics        domrepo.Metrics
	logger         *logger.Logger
	curveMinutes   int
	minTierSamples int
}

func NewSurvivalMaintenanceJob(store domrepo.SurvivalStore, metrics domrepo.Metrics, lgr *logger.Logger, curveMinutes, minTierSamples int) *SurvivalMaintenanceJob {
	if curveMinutes <= 0 {
		curveMinutes = 60
	}
	if minTierSamples <= 0 {
		minTierSamples = 30
	}
	return &SurvivalMaintenanceJob{
		store:          store,
		metrics:        metrics,
		logger:         lgr,
		curveMinutes:   curveMinutes,
		minTierSamples: minTierSamples,
	}
}

func (j *SurvivalMaintenanceJob) Name() string { return SurvivalMaintenanceJobName }
func (j *SurvivalMaintenanceJob) Type() string { return SurvivalMaintenanceJobName }

func (j *SurvivalMaintenanceJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[SurvivalMaintenancePayload](payload)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}
	lookback := p.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -lookback)

	for _, tier := range models.Tiers() {
		curve, err := j.fitTier(ctx, tier, since)
		if err != nil {
			if j.logger != nil {
				j.logger.Error("survival curve fit failed",
					logger.String("tier", string(tier)),
					logger.Error(err))
			}
			if j.metrics != nil {
				j.metrics.RecordError("survival_fit")
			}
			continue
		}
		if err := j.store.ReplaceCurve(ctx, curve); err != nil {
			return fmt.Errorf("replace curve for tier %s: %w", tier, err)
		}
		if j.logger != nil {
			j.logger.Info("survival curve updated",
				logger.String("tier", string(tier)),
				logger.String("source", curve.Source))
		}
	}
	return nil
}

func (j *SurvivalMaintenanceJob) fitTier(ctx context.Context, tier models.Tier, since time.Time) (*models.SurvivalCurve, error) {
	durations, err := j.store.ClosedDurations(ctx, tier, since)
	if err != nil {
		return nil, fmt.Errorf("load durations: %w", err)
	}
	if len(durations) < j.minTierSamples {
		return valuation.ParametricCurve(tier, j.curveMinutes), nil
	}

	// Closed trades all observed their decay; censoring applies only
	// to still-open positions, which are excluded here.
	observed := make([]bool, len(durations))
	for i := range observed {
		observed[i] = true
	}
	return valuation.KaplanMeierCurve(tier, durations, observed, j.curveMinutes), nil
}
