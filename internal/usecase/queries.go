package usecase

import (
	"context"
	"fmt"
	"time"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
	"AprSight/internal/services/features"
)

// QueryUseCase serves the read-only prediction API surface.
// defaultLimit and windowDays back-fill requests that arrive without
// explicit values.
type QueryUseCase struct {
	features     domrepo.FeatureStore
	history      domrepo.HistoryStore
	trades       domrepo.TradeStore
	monitor      *PerformanceMonitor
	defaultLimit int
	windowDays   int
}

func NewQueryUseCase(features domrepo.FeatureStore, history domrepo.HistoryStore, trades domrepo.TradeStore, monitor *PerformanceMonitor, defaultLimit, windowDays int) *QueryUseCase {
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	return &QueryUseCase{
		features:     features,
		history:      history,
		trades:       trades,
		monitor:      monitor,
		defaultLimit: defaultLimit,
		windowDays:   windowDays,
	}
}

// Predictions returns the latest feature snapshot per asset, ranked by
// cleaned APR, optionally filtered to one regime.
func (uc *QueryUseCase) Predictions(ctx context.Context, limit int, regime string) ([]*models.FeatureSnapshot, error) {
	if limit <= 0 {
		limit = uc.defaultLimit
	}
	snaps, err := uc.features.Latest(ctx, limit, regime)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	return snaps, nil
}

// Validation returns the rolling performance stats and ready gate.
func (uc *QueryUseCase) Validation(ctx context.Context, days int) (*models.PerformanceStats, error) {
	if days <= 0 {
		days = uc.windowDays
	}
	return uc.monitor.GetStats(ctx, days)
}

// Trades lists paper trades filtered by status.
func (uc *QueryUseCase) Trades(ctx context.Context, status string, limit, offset int) ([]*models.PaperTrade, error) {
	if status == "" {
		status = "all"
	}
	if limit <= 0 {
		limit = uc.defaultLimit
	}
	trades, err := uc.trades.Trades(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return trades, nil
}

// History returns the observation history for one asset together with
// an EMA-crossover trend analysis over the fetched window.
func (uc *QueryUseCase) History(ctx context.Context, token string, hours, limit int) (*models.HistoryResult, error) {
	if token == "" {
		return nil, fmt.Errorf("token required")
	}
	if hours <= 0 {
		hours = 24
	}
	if limit <= 0 {
		limit = 1000
	}
	now := time.Now().UTC()
	obs, err := uc.history.History(ctx, token, now.Add(-time.Duration(hours)*time.Hour), now, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return &models.HistoryResult{
		Token: token,
		Hours: hours,
		Count: len(obs),
		Trend: features.AnalyzeTrend(obs),
		Data:  obs,
	}, nil
}

// Healthz reports storage health.
func (uc *QueryUseCase) Healthz(ctx context.Context) error {
	return uc.history.Health(ctx)
}
