package repository

import (
	"context"
	"time"

	"AprSight/internal/domain/models"
)

// HistoryStore persists raw APR observations.
type HistoryStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, obs *models.Observation) error
	StoreBatch(ctx context.Context, batch []*models.Observation) error
	History(ctx context.Context, currency string, from, to time.Time, limit int) ([]*models.Observation, error)
	ActiveCurrencies(ctx context.Context, since time.Time) ([]string, error)
	RecordIngestRun(ctx context.Context, run *models.IngestRun) error
	Health(ctx context.Context) error // ping
	Close() error
}

// FeatureStore persists per-cycle feature snapshots, one row per
// (currency, timestamp), overwritten on recompute.
type FeatureStore interface {
	Upsert(ctx context.Context, snap *models.FeatureSnapshot) error
	Latest(ctx context.Context, limit int, regime string) ([]*models.FeatureSnapshot, error)
	LatestFor(ctx context.Context, currency string) (*models.FeatureSnapshot, error)
}

// SurvivalStore persists survival curves, replaced wholesale per tier.
type SurvivalStore interface {
	ReplaceCurve(ctx context.Context, curve *models.SurvivalCurve) error
	Curve(ctx context.Context, tier models.Tier) (*models.SurvivalCurve, error)
	ClosedDurations(ctx context.Context, tier models.Tier, since time.Time) ([]int, error)
}

// TradeStore persists paper trades. Rows are inserted at open and
// rewritten exactly once at close; no other mutation path exists.
type TradeStore interface {
	Open(ctx context.Context, trade *models.PaperTrade) error
	Close(ctx context.Context, trade *models.PaperTrade) error
	OpenTrades(ctx context.Context) ([]*models.PaperTrade, error)
	OpenTradeFor(ctx context.Context, currency string) (*models.PaperTrade, error)
	Exists(ctx context.Context, currency string, entryTS time.Time) (bool, error)
	ClosedSince(ctx context.Context, since time.Time) ([]*models.PaperTrade, error)
	Trades(ctx context.Context, status string, limit, offset int) ([]*models.PaperTrade, error)
}

// Metrics abstracts the operational counters recorded by the engine.
type Metrics interface {
	RecordCycle()
	RecordAssetOutcome(outcome string)
	RecordError(kind string)
	RecordSignal(currency, regime string, aprClean, confidence float64)
	RecordTradeOpened(currency string)
	RecordTradeClosed(currency, reason string, pnl float64)
	RecordIngested(source string, n int)
	RecordLatency(op string, seconds float64)
}

// EventPublisher publishes trade lifecycle events to the message bus.
type EventPublisher interface {
	PublishTradeEvent(ctx context.Context, event *models.TradeEvent) error
	Close() error
}
