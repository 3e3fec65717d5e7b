package usecase

import (
	"context"
	"fmt"
	"time"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
	domsvc "AprSight/internal/domain/service"
	"AprSight/pkg/logger"
)

// PipelineConfig holds the per-cycle processing parameters.
type PipelineConfig struct {
	LookbackHours    int
	ActiveWindow     time.Duration
	MinHistoryPoints int
	HorizonMinutes   int
}

// Pipeline runs one end-to-end prediction cycle: fetch history, clean,
// extract features, infer regime, value, persist the snapshot, and feed
// the signal batch to the simulator. No failure on one asset may
// terminate the cycle.
type Pipeline struct {
	cfg         PipelineConfig
	history     domrepo.HistoryStore
	features    domrepo.FeatureStore
	conditioner domsvc.SignalConditioner
	extractor   domsvc.FeatureExtractor
	regimes     domsvc.RegimeEngine
	valuer      domsvc.Valuer
	simulator   *Simulator
	metrics     domrepo.Metrics
	logger      *logger.Logger
	sink        SignalSink
}

// SignalSink receives each cycle's signal batch for live delivery.
// Delivery is fire-and-forget; a sink must not block the cycle.
type SignalSink interface {
	BroadcastSignals(signals []*models.Signal)
}

// SetSignalSink attaches a live signal sink. Must be called before Start.
func (p *Pipeline) SetSignalSink(s SignalSink) { p.sink = s }

func NewPipeline(
	cfg PipelineConfig,
	history domrepo.HistoryStore,
	features domrepo.FeatureStore,
	conditioner domsvc.SignalConditioner,
	extractor domsvc.FeatureExtractor,
	regimes domsvc.RegimeEngine,
	valuer domsvc.Valuer,
	simulator *Simulator,
	metrics domrepo.Metrics,
	lgr *logger.Logger,
) *Pipeline {
	if cfg.LookbackHours <= 0 {
		cfg.LookbackHours = 24
	}
	if cfg.ActiveWindow <= 0 {
		cfg.ActiveWindow = 10 * time.Minute
	}
	if cfg.MinHistoryPoints <= 0 {
		cfg.MinHistoryPoints = 20
	}
	if cfg.HorizonMinutes <= 0 {
		cfg.HorizonMinutes = 60
	}
	return &Pipeline{
		cfg:         cfg,
		history:     history,
		features:    features,
		conditioner: conditioner,
		extractor:   extractor,
		regimes:     regimes,
		valuer:      valuer,
		simulator:   simulator,
		metrics:     metrics,
		logger:      lgr,
	}
}

// RunCycle processes every asset seen within the active window and
// hands the resulting signal batch to the simulator.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.RecordCycle()
	}

	active, err := p.history.ActiveCurrencies(ctx, time.Now().UTC().Add(-p.cfg.ActiveWindow))
	if err != nil {
		return fmt.Errorf("list active currencies: %w", err)
	}
	if p.logger != nil {
		p.logger.Info("prediction cycle started", logger.Int("assets", len(active)))
	}

	signals := make([]*models.Signal, 0, len(active))
	for _, currency := range active {
		sig := p.processAsset(ctx, currency)
		if sig != nil {
			signals = append(signals, sig)
		}
	}

	if len(signals) > 0 && p.simulator != nil {
		if err := p.simulator.Update(ctx, signals); err != nil {
			// Simulation errors must not fail the cycle.
			if p.logger != nil {
				p.logger.Error("simulation update failed", logger.Error(err))
			}
			if p.metrics != nil {
				p.metrics.RecordError("simulation_update")
			}
		}
	}

	if p.sink != nil && len(signals) > 0 {
		p.sink.BroadcastSignals(signals)
	}

	if p.metrics != nil {
		p.metrics.RecordLatency("cycle", time.Since(start).Seconds())
	}
	if p.logger != nil {
		p.logger.Info("prediction cycle finished",
			logger.Int("signals", len(signals)),
			logger.Duration("elapsed", time.Since(start)))
	}
	return nil
}

// processAsset turns one asset's history into a signal, or nil when the
// asset is skipped this cycle. All failure modes degrade to a skip.
func (p *Pipeline) processAsset(ctx context.Context, currency string) (sig *models.Signal) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			p.skip(currency, "panic", fmt.Errorf("%v", r))
		}
	}()

	now := time.Now().UTC()
	history, err := p.history.History(ctx, currency, now.Add(-time.Duration(p.cfg.LookbackHours)*time.Hour), now, 0)
	if err != nil {
		p.skip(currency, "history", err)
		return nil
	}
	if len(history) < p.cfg.MinHistoryPoints {
		// Thin history is a skip, not an error.
		if p.metrics != nil {
			p.metrics.RecordAssetOutcome("insufficient_data")
		}
		return nil
	}

	raw := make([]float64, len(history))
	for i, obs := range history {
		raw[i] = obs.APR
	}
	cleaned := p.conditioner.Clean(raw)

	feats, err := p.extractor.Extract(cleaned)
	if err != nil {
		p.skip(currency, "features", err)
		return nil
	}

	_, regime, confidence := p.regimes.Update(currency, feats)

	// Net APR already accounts for borrow cost, so the engine values
	// positions with zero explicit borrow APR.
	raEV, err := p.valuer.RAEV(ctx, feats.APRClean, feats.Volatility, 0, p.cfg.HorizonMinutes)
	if err != nil {
		p.skip(currency, "valuation", err)
		return nil
	}

	latest := history[len(history)-1]
	snap := &models.FeatureSnapshot{
		Currency:   currency,
		Timestamp:  latest.Timestamp,
		APRRaw:     latest.APR,
		APRClean:   feats.APRClean,
		Slope:      feats.Slope,
		Divergence: feats.Divergence,
		Volatility: feats.Volatility,
		Regime:     regime,
		Confidence: confidence,
		RAEV:       raEV,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := p.features.Upsert(ctx, snap); err != nil {
		// Snapshot persistence is best effort; the signal still flows.
		if p.logger != nil {
			p.logger.Warn("feature snapshot upsert failed",
				logger.String("currency", currency),
				logger.Error(err))
		}
		if p.metrics != nil {
			p.metrics.RecordError("feature_upsert")
		}
	}

	if p.metrics != nil {
		p.metrics.RecordAssetOutcome("ok")
		p.metrics.RecordSignal(currency, regime.String(), feats.APRClean, confidence)
	}

	return &models.Signal{
		Currency:      currency,
		APR:           feats.APRClean,
		Regime:        regime,
		RegimeName:    regime.String(),
		Confidence:    confidence,
		RAEV:          raEV,
		Volatility:    feats.Volatility,
		Trend:         feats.Trend(),
		BorrowCostAPR: 0,
		WithdrawalFee: 0,
		Timestamp:     latest.Timestamp,
	}
}

func (p *Pipeline) skip(currency, stage string, err error) {
	if p.logger != nil {
		p.logger.Warn("asset skipped this cycle",
			logger.String("currency", currency),
			logger.String("stage", stage),
			logger.Error(err))
	}
	if p.metrics != nil {
		p.metrics.RecordAssetOutcome("skipped_" + stage)
	}
}
