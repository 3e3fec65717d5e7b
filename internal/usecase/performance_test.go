package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"AprSight/internal/domain/models"
)

func closedTrade(currency string, closedAt time.Time, pnl float64) *models.PaperTrade {
	exit := closedAt
	return &models.PaperTrade{
		ID:             currency + exit.Format(time.RFC3339),
		Currency:       currency,
		EntryTimestamp: exit.Add(-time.Hour),
		ExitTimestamp:  &exit,
		RealizedPnL:    pnl,
		ExitReason:     "Max Duration (Earn:1h, Borrow:1h)",
	}
}

func TestStatsEmptyWindow(t *testing.T) {
	m := NewPerformanceMonitor(&fakeTradeStore{})
	stats, err := m.GetStats(context.Background(), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalTrades != 0 || stats.WinRate != 0 || stats.CumulativeReturn != 0 ||
		stats.MaxDrawdown != 0 || stats.SharpeRatio != 0 {
		t.Fatalf("expected all-zero stats, got %+v", stats)
	}
	if stats.SystemReady {
		t.Fatal("system must not be ready with zero trades")
	}
}

func TestFiftyWinnersNotReady(t *testing.T) {
	store := &fakeTradeStore{}
	now := time.Now().UTC()
	for i := 0; i < 50; i++ {
		store.trades = append(store.trades, closedTrade("SOL", now.Add(-time.Duration(i)*time.Hour), 1.0))
	}

	m := NewPerformanceMonitor(store)
	stats, err := m.GetStats(context.Background(), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.WinRate != 1.0 {
		t.Fatalf("win rate: got %v, want 1.0", stats.WinRate)
	}
	if stats.CumulativeReturn != 50.0 {
		t.Fatalf("cumulative return: got %v, want 50", stats.CumulativeReturn)
	}
	// A perfect record below the trade-count floor still fails the gate.
	if stats.SystemReady {
		t.Fatal("50 trades must not pass the 100-trade gate")
	}
	// Identical returns have zero variance, so sharpe collapses to zero.
	if stats.SharpeRatio != 0 {
		t.Fatalf("sharpe: got %v, want 0 for zero variance", stats.SharpeRatio)
	}
}

func TestMaxDrawdownTracksEquityTrough(t *testing.T) {
	store := &fakeTradeStore{}
	now := time.Now().UTC()
	pnls := []float64{2, 3, -4, -2, 5} // equity 2,5,1,-1,4; peak 2,5,5,5,5; dd min -6
	for i, p := range pnls {
		store.trades = append(store.trades, closedTrade("SOL", now.Add(time.Duration(i)*time.Minute), p))
	}

	m := NewPerformanceMonitor(store)
	stats, err := m.GetStats(context.Background(), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.MaxDrawdown != -6.0 {
		t.Fatalf("max drawdown: got %v, want -6", stats.MaxDrawdown)
	}
	if stats.CumulativeReturn != 4.0 {
		t.Fatalf("cumulative return: got %v, want 4", stats.CumulativeReturn)
	}
}

func TestDrawdownSeedsPeakAtFirstEquity(t *testing.T) {
	store := &fakeTradeStore{}
	now := time.Now().UTC()
	pnls := []float64{-5, 20} // equity -5,15; peak -5,15; never below its own start
	for i, p := range pnls {
		store.trades = append(store.trades, closedTrade("SOL", now.Add(time.Duration(i)*time.Minute), p))
	}

	m := NewPerformanceMonitor(store)
	stats, err := m.GetStats(context.Background(), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.MaxDrawdown != 0 {
		t.Fatalf("max drawdown: got %v, want 0 for a curve that only rises from its start", stats.MaxDrawdown)
	}
}

func TestSharpeComputation(t *testing.T) {
	store := &fakeTradeStore{}
	now := time.Now().UTC()
	pnls := []float64{1, 2, 3}
	for i, p := range pnls {
		store.trades = append(store.trades, closedTrade("SOL", now.Add(time.Duration(i)*time.Minute), p))
	}

	m := NewPerformanceMonitor(store)
	stats, _ := m.GetStats(context.Background(), 30)
	// mean 2, sample std 1.
	if math.Abs(stats.SharpeRatio-2.0) > 1e-9 {
		t.Fatalf("sharpe: got %v, want 2.0", stats.SharpeRatio)
	}
}

func TestReadyGatePasses(t *testing.T) {
	store := &fakeTradeStore{}
	now := time.Now().UTC()
	// 120 trades, mostly winners, mild noise to give nonzero variance.
	for i := 0; i < 120; i++ {
		pnl := 1.0
		if i%10 == 0 {
			pnl = -0.5
		}
		store.trades = append(store.trades, closedTrade("SOL", now.Add(-time.Duration(i)*time.Minute), pnl))
	}

	m := NewPerformanceMonitor(store)
	stats, err := m.GetStats(context.Background(), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stats.SystemReady {
		t.Fatalf("expected system ready, got %+v", stats)
	}
}

func TestTradesOutsideWindowExcluded(t *testing.T) {
	store := &fakeTradeStore{}
	now := time.Now().UTC()
	store.trades = append(store.trades,
		closedTrade("SOL", now.Add(-time.Hour), 1.0),
		closedTrade("SOL", now.AddDate(0, 0, -40), 100.0),
	)

	m := NewPerformanceMonitor(store)
	stats, _ := m.GetStats(context.Background(), 30)
	if stats.TotalTrades != 1 {
		t.Fatalf("expected the 40-day-old trade excluded, got %d trades", stats.TotalTrades)
	}
}
