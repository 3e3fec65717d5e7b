package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
)

// Validation gate thresholds: the simulated track record must clear all
// of these before the system is considered ready for live execution.
const (
	readyMinTrades   = 100
	readyMaxDrawdown = -10.0
	readyMinSharpe   = 0.5
)

// PerformanceMonitor aggregates closed paper trades into rolling
// statistics and the binary system-ready gate.
type PerformanceMonitor struct {
	trades domrepo.TradeStore
}

func NewPerformanceMonitor(trades domrepo.TradeStore) *PerformanceMonitor {
	return &PerformanceMonitor{trades: trades}
}

// GetStats computes statistics over trades closed in the trailing
// window. Zero trades yields all-zero stats with SystemReady false.
func (m *PerformanceMonitor) GetStats(ctx context.Context, days int) (*models.PerformanceStats, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	closed, err := m.trades.ClosedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load closed trades: %w", err)
	}

	stats := &models.PerformanceStats{WindowDays: days}
	if len(closed) == 0 {
		return stats, nil
	}

	stats.TotalTrades = len(closed)

	// The running peak seeds at the first equity value, so a curve that
	// starts under water has zero drawdown until it falls below its own
	// first point.
	var sum, equity, maxDD float64
	peak := math.Inf(-1)
	for _, t := range closed {
		if t.RealizedPnL > 0 {
			stats.WinningTrades++
		}
		sum += t.RealizedPnL

		equity += t.RealizedPnL
		if equity > peak {
			peak = equity
		}
		if dd := equity - peak; dd < maxDD {
			maxDD = dd
		}
	}

	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades)
	stats.CumulativeReturn = sum
	stats.MaxDrawdown = maxDD
	stats.SharpeRatio = sharpe(closed, sum)

	stats.SystemReady = stats.TotalTrades >= readyMinTrades &&
		stats.CumulativeReturn > 0 &&
		stats.MaxDrawdown > readyMaxDrawdown &&
		stats.SharpeRatio > readyMinSharpe

	return stats, nil
}

// sharpe is mean over sample standard deviation of per-trade returns,
// zero with fewer than two trades or zero variance.
func sharpe(closed []*models.PaperTrade, sum float64) float64 {
	n := float64(len(closed))
	if n < 2 {
		return 0
	}
	mean := sum / n
	var sq float64
	for _, t := range closed {
		d := t.RealizedPnL - mean
		sq += d * d
	}
	variance := sq / (n - 1)
	if variance <= 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}
