package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"AprSight/internal/domain/models"
	"AprSight/internal/usecase"
	xlogger "AprSight/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fakeFeatureStore struct {
	snaps []*models.FeatureSnapshot
}

func (f *fakeFeatureStore) Upsert(context.Context, *models.FeatureSnapshot) error { return nil }
func (f *fakeFeatureStore) Latest(_ context.Context, limit int, regime string) ([]*models.FeatureSnapshot, error) {
	out := make([]*models.FeatureSnapshot, 0, len(f.snaps))
	for _, s := range f.snaps {
		if regime != "" && s.Regime.String() != regime {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
func (f *fakeFeatureStore) LatestFor(context.Context, string) (*models.FeatureSnapshot, error) {
	return nil, nil
}

type fakeHistoryStore struct {
	obs     []*models.Observation
	healthy bool
}

func (f *fakeHistoryStore) Init(context.Context) error                       { return nil }
func (f *fakeHistoryStore) Store(context.Context, *models.Observation) error { return nil }
func (f *fakeHistoryStore) StoreBatch(context.Context, []*models.Observation) error {
	return nil
}
func (f *fakeHistoryStore) History(_ context.Context, currency string, _, _ time.Time, _ int) ([]*models.Observation, error) {
	out := []*models.Observation{}
	for _, o := range f.obs {
		if o.Currency == currency {
			out = append(out, o)
		}
	}
	return out, nil
}
func (f *fakeHistoryStore) ActiveCurrencies(context.Context, time.Time) ([]string, error) {
	return nil, nil
}
func (f *fakeHistoryStore) RecordIngestRun(context.Context, *models.IngestRun) error { return nil }
func (f *fakeHistoryStore) Health(context.Context) error {
	if !f.healthy {
		return context.DeadlineExceeded
	}
	return nil
}
func (f *fakeHistoryStore) Close() error { return nil }

type fakeTradeStore struct {
	trades []*models.PaperTrade
}

func (f *fakeTradeStore) Open(context.Context, *models.PaperTrade) error  { return nil }
func (f *fakeTradeStore) Close(context.Context, *models.PaperTrade) error { return nil }
func (f *fakeTradeStore) OpenTrades(context.Context) ([]*models.PaperTrade, error) {
	return nil, nil
}
func (f *fakeTradeStore) OpenTradeFor(context.Context, string) (*models.PaperTrade, error) {
	return nil, nil
}
func (f *fakeTradeStore) Exists(context.Context, string, time.Time) (bool, error) {
	return false, nil
}
func (f *fakeTradeStore) ClosedSince(context.Context, time.Time) ([]*models.PaperTrade, error) {
	return nil, nil
}
func (f *fakeTradeStore) Trades(_ context.Context, status string, limit, offset int) ([]*models.PaperTrade, error) {
	out := []*models.PaperTrade{}
	for _, t := range f.trades {
		switch status {
		case "open":
			if !t.IsOpen() {
				continue
			}
		case "closed":
			if t.IsOpen() {
				continue
			}
		}
		out = append(out, t)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func testHandler(t *testing.T, features *fakeFeatureStore, history *fakeHistoryStore, trades *fakeTradeStore) *PredictionHandler {
	t.Helper()
	lgr, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	queries := usecase.NewQueryUseCase(features, history, trades, usecase.NewPerformanceMonitor(trades), 100, 30)
	return NewPredictionHandler(queries, nil, 0, lgr)
}

func doRequest(h *PredictionHandler, method, target string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredictionsFiltersByRegime(t *testing.T) {
	features := &fakeFeatureStore{snaps: []*models.FeatureSnapshot{
		{Currency: "USDT", Regime: models.RegimeHigh, APRClean: 250},
		{Currency: "DAI", Regime: models.RegimeLow, APRClean: 12},
	}}
	h := testHandler(t, features, &fakeHistoryStore{healthy: true}, &fakeTradeStore{})

	rec := doRequest(h, http.MethodGet, "/api/predictions?regime=High")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool                      `json:"success"`
		Data    []*models.FeatureSnapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || len(resp.Data) != 1 || resp.Data[0].Currency != "USDT" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPredictionsRejectsBadRegime(t *testing.T) {
	h := testHandler(t, &fakeFeatureStore{}, &fakeHistoryStore{healthy: true}, &fakeTradeStore{})
	rec := doRequest(h, http.MethodGet, "/api/predictions?regime=Sideways")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTradesStatusFilter(t *testing.T) {
	exit := time.Now().UTC()
	trades := &fakeTradeStore{trades: []*models.PaperTrade{
		{ID: "1", Currency: "USDT"},
		{ID: "2", Currency: "DAI", ExitTimestamp: &exit},
	}}
	h := testHandler(t, &fakeFeatureStore{}, &fakeHistoryStore{healthy: true}, trades)

	rec := doRequest(h, http.MethodGet, "/api/trades?status=open")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Items []*models.PaperTrade `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Items) != 1 || resp.Data.Items[0].ID != "1" {
		t.Fatalf("unexpected trades: %+v", resp.Data.Items)
	}
}

func TestHistoryRequiresToken(t *testing.T) {
	h := testHandler(t, &fakeFeatureStore{}, &fakeHistoryStore{healthy: true}, &fakeTradeStore{})
	rec := doRequest(h, http.MethodGet, "/api/history/USDT")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHistoryCarriesTrendAnalysis(t *testing.T) {
	history := &fakeHistoryStore{healthy: true}
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24; i++ {
		history.obs = append(history.obs, &models.Observation{
			Currency:  "USDT",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			APR:       100 + float64(i)*2,
		})
	}

	h := testHandler(t, &fakeFeatureStore{}, history, &fakeTradeStore{})
	rec := doRequest(h, http.MethodGet, "/api/history/USDT?hours=24")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data *models.HistoryResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data == nil || resp.Data.Count != 24 || len(resp.Data.Data) != 24 {
		t.Fatalf("unexpected history payload: %+v", resp.Data)
	}
	if resp.Data.Trend.Direction != "UP" {
		t.Fatalf("trend = %q, want UP", resp.Data.Trend.Direction)
	}
	if resp.Data.Trend.Strength <= 0 || resp.Data.Trend.ShortEMA <= resp.Data.Trend.LongEMA {
		t.Fatalf("unexpected trend analysis: %+v", resp.Data.Trend)
	}
}

func TestHealthzReportsStorage(t *testing.T) {
	h := testHandler(t, &fakeFeatureStore{}, &fakeHistoryStore{healthy: true}, &fakeTradeStore{})
	if rec := doRequest(h, http.MethodGet, "/api/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthy: status = %d", rec.Code)
	}

	h = testHandler(t, &fakeFeatureStore{}, &fakeHistoryStore{healthy: false}, &fakeTradeStore{})
	if rec := doRequest(h, http.MethodGet, "/api/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded: status = %d", rec.Code)
	}
}

func TestValidationEmptyWindow(t *testing.T) {
	h := testHandler(t, &fakeFeatureStore{}, &fakeHistoryStore{healthy: true}, &fakeTradeStore{})
	rec := doRequest(h, http.MethodGet, "/api/validation?days=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data *models.PerformanceStats `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data == nil || resp.Data.TotalTrades != 0 || resp.Data.SystemReady {
		t.Fatalf("unexpected stats: %+v", resp.Data)
	}
}
