package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"AprSight/internal/domain/models"
	"AprSight/internal/services/conditioner"
	"AprSight/internal/services/features"
	"AprSight/internal/services/regime"
	"AprSight/internal/services/valuation"
)

type fakeHistoryStore struct {
	mu        sync.Mutex
	series    map[string][]*models.Observation
	failFor   map[string]bool
	failBatch error
	runs      []*models.IngestRun
}

func (f *fakeHistoryStore) Init(ctx context.Context) error   { return nil }
func (f *fakeHistoryStore) Close() error                     { return nil }
func (f *fakeHistoryStore) Health(ctx context.Context) error { return nil }
func (f *fakeHistoryStore) Store(ctx context.Context, obs *models.Observation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.series == nil {
		f.series = make(map[string][]*models.Observation)
	}
	f.series[obs.Currency] = append(f.series[obs.Currency], obs)
	return nil
}
func (f *fakeHistoryStore) StoreBatch(ctx context.Context, batch []*models.Observation) error {
	if f.failBatch != nil {
		return f.failBatch
	}
	for _, obs := range batch {
		if err := f.Store(ctx, obs); err != nil {
			return err
		}
	}
	return nil
}
func (f *fakeHistoryStore) History(ctx context.Context, currency string, from, to time.Time, limit int) ([]*models.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[currency] {
		return nil, errors.New("storage unavailable")
	}
	return f.series[currency], nil
}
func (f *fakeHistoryStore) ActiveCurrencies(ctx context.Context, since time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for c := range f.series {
		out = append(out, c)
	}
	for c := range f.failFor {
		out = append(out, c)
	}
	return out, nil
}
func (f *fakeHistoryStore) RecordIngestRun(ctx context.Context, run *models.IngestRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

type fakeFeatureStore struct {
	mu    sync.Mutex
	snaps map[string]*models.FeatureSnapshot
}

func (f *fakeFeatureStore) Upsert(ctx context.Context, snap *models.FeatureSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snaps == nil {
		f.snaps = make(map[string]*models.FeatureSnapshot)
	}
	cp := *snap
	f.snaps[snap.Currency] = &cp
	return nil
}
func (f *fakeFeatureStore) Latest(ctx context.Context, limit int, regimeName string) ([]*models.FeatureSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.FeatureSnapshot
	for _, s := range f.snaps {
		if regimeName == "" || s.Regime.String() == regimeName {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}
func (f *fakeFeatureStore) LatestFor(ctx context.Context, currency string) (*models.FeatureSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.snaps[currency]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

type noCurveStore struct{}

func (noCurveStore) ReplaceCurve(ctx context.Context, curve *models.SurvivalCurve) error { return nil }
func (noCurveStore) Curve(ctx context.Context, tier models.Tier) (*models.SurvivalCurve, error) {
	return nil, nil
}
func (noCurveStore) ClosedDurations(ctx context.Context, tier models.Tier, since time.Time) ([]int, error) {
	return nil, nil
}

func seedSeries(store *fakeHistoryStore, currency string, base time.Time, aprs []float64) {
	for i, apr := range aprs {
		_ = store.Store(context.Background(), &models.Observation{
			Currency:  currency,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			APR:       apr,
			Source:    "test",
		})
	}
}

func newTestPipeline(history *fakeHistoryStore, feats *fakeFeatureStore, metrics *fakeMetrics) *Pipeline {
	return NewPipeline(
		PipelineConfig{LookbackHours: 24, ActiveWindow: 10 * time.Minute, MinHistoryPoints: 20, HorizonMinutes: 60},
		history,
		feats,
		conditioner.New(),
		features.NewExtractor(),
		regime.NewEngine(),
		valuation.NewValuer(noCurveStore{}, 0.5, 60),
		nil,
		metrics,
		nil,
	)
}

func TestRunCyclePersistsSnapshots(t *testing.T) {
	history := &fakeHistoryStore{}
	base := time.Now().UTC().Add(-time.Hour)
	aprs := make([]float64, 40)
	for i := range aprs {
		aprs[i] = 30.0
	}
	seedSeries(history, "DAI", base, aprs)

	feats := &fakeFeatureStore{}
	metrics := newFakeMetrics()
	p := newTestPipeline(history, feats, metrics)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, _ := feats.LatestFor(context.Background(), "DAI")
	if snap == nil {
		t.Fatal("expected a feature snapshot for DAI")
	}
	if snap.Regime != models.RegimeLow {
		t.Fatalf("regime: got %v, want Low", snap.Regime)
	}
	if snap.APRClean != 30.0 {
		t.Fatalf("apr_clean: got %v, want 30", snap.APRClean)
	}
	if math.IsNaN(snap.RAEV) {
		t.Fatal("RA-EV must be finite")
	}
	if metrics.outcomes["ok"] != 1 {
		t.Fatalf("outcomes: %+v", metrics.outcomes)
	}
}

func TestRunCycleSkipsThinHistory(t *testing.T) {
	history := &fakeHistoryStore{}
	base := time.Now().UTC().Add(-time.Hour)
	seedSeries(history, "NEW", base, []float64{10, 11, 12}) // under the minimum

	feats := &fakeFeatureStore{}
	metrics := newFakeMetrics()
	p := newTestPipeline(history, feats, metrics)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap, _ := feats.LatestFor(context.Background(), "NEW"); snap != nil {
		t.Fatal("thin history must not produce a snapshot")
	}
	if metrics.outcomes["insufficient_data"] != 1 {
		t.Fatalf("outcomes: %+v", metrics.outcomes)
	}
}

func TestRunCycleIsolatesPerAssetFailures(t *testing.T) {
	history := &fakeHistoryStore{failFor: map[string]bool{"BROKEN": true}}
	base := time.Now().UTC().Add(-time.Hour)
	aprs := make([]float64, 40)
	for i := range aprs {
		aprs[i] = 25.0
	}
	seedSeries(history, "DAI", base, aprs)

	feats := &fakeFeatureStore{}
	metrics := newFakeMetrics()
	p := newTestPipeline(history, feats, metrics)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("one broken asset must not fail the cycle: %v", err)
	}
	if snap, _ := feats.LatestFor(context.Background(), "DAI"); snap == nil {
		t.Fatal("healthy asset should still produce a snapshot")
	}
	if metrics.outcomes["skipped_history"] != 1 {
		t.Fatalf("outcomes: %+v", metrics.outcomes)
	}
}

func TestRunCycleFeedsSimulator(t *testing.T) {
	history := &fakeHistoryStore{}
	base := time.Now().UTC().Add(-time.Hour)

	// A high-APR asset held at a steady level: belief settles on High
	// with confidence above the entry threshold and positive RA-EV.
	aprs := make([]float64, 40)
	for i := range aprs {
		aprs[i] = 250.0
	}
	seedSeries(history, "APT", base, aprs)

	trades := &fakeTradeStore{}
	sim := testSimulator(trades, &fakePublisher{})

	p := NewPipeline(
		PipelineConfig{LookbackHours: 24, ActiveWindow: 10 * time.Minute, MinHistoryPoints: 20, HorizonMinutes: 60},
		history,
		&fakeFeatureStore{},
		conditioner.New(),
		features.NewExtractor(),
		regime.NewEngine(),
		valuation.NewValuer(noCurveStore{}, 0.5, 60),
		sim,
		newFakeMetrics(),
		nil,
	)

	// Several cycles so the belief converges on Rising/High.
	for i := 0; i < 6; i++ {
		if err := p.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}

	open, _ := trades.OpenTrades(context.Background())
	if len(open) != 1 {
		t.Fatalf("expected a paper trade to open, got %d", len(open))
	}
	if open[0].Currency != "APT" {
		t.Fatalf("currency: got %s", open[0].Currency)
	}
}
