package usecase

import (
	"context"
	"sync"
	"time"

	"AprSight/internal/domain/models"
)

// fakeTradeStore is an in-memory TradeStore used across usecase tests.
type fakeTradeStore struct {
	mu     sync.Mutex
	trades []*models.PaperTrade
	closes int
}

func (f *fakeTradeStore) Open(ctx context.Context, trade *models.PaperTrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *trade
	f.trades = append(f.trades, &cp)
	return nil
}

func (f *fakeTradeStore) Close(ctx context.Context, trade *models.PaperTrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	for i, t := range f.trades {
		if t.ID == trade.ID {
			cp := *trade
			f.trades[i] = &cp
			return nil
		}
	}
	return nil
}

func (f *fakeTradeStore) OpenTrades(ctx context.Context) ([]*models.PaperTrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PaperTrade
	for _, t := range f.trades {
		if t.IsOpen() {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTradeStore) OpenTradeFor(ctx context.Context, currency string) (*models.PaperTrade, error) {
	open, _ := f.OpenTrades(ctx)
	for _, t := range open {
		if t.Currency == currency {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTradeStore) Exists(ctx context.Context, currency string, entryTS time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.trades {
		if t.Currency == currency && t.EntryTimestamp.Equal(entryTS) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTradeStore) ClosedSince(ctx context.Context, since time.Time) ([]*models.PaperTrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PaperTrade
	for _, t := range f.trades {
		if !t.IsOpen() && !t.ExitTimestamp.Before(since) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTradeStore) Trades(ctx context.Context, status string, limit, offset int) ([]*models.PaperTrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PaperTrade
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
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.TradeEvent
}

func (f *fakePublisher) PublishTradeEvent(ctx context.Context, event *models.TradeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	errors   map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{outcomes: make(map[string]int), errors: make(map[string]int)}
}

func (f *fakeMetrics) RecordCycle() {}
func (f *fakeMetrics) RecordAssetOutcome(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[outcome]++
}
func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[kind]++
}
func (f *fakeMetrics) RecordSignal(currency, regime string, aprClean, confidence float64) {}
func (f *fakeMetrics) RecordTradeOpened(currency string)                                  {}
func (f *fakeMetrics) RecordTradeClosed(currency, reason string, pnl float64)             {}
func (f *fakeMetrics) RecordIngested(source string, n int)                                {}
func (f *fakeMetrics) RecordLatency(op string, seconds float64)                           {}
