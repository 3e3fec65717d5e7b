package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
	"AprSight/pkg/logger"
	"AprSight/pkg/util"

	"github.com/google/uuid"
)

// SimulatorConfig holds the paper-trading thresholds.
type SimulatorConfig struct {
	MinConfidence     float64
	MinRAEV           float64
	MaxHoldingMinutes int
	CapitalBase       float64
}

// Simulator opens and closes simulated positions from per-cycle signals.
// One open position per asset at a time; a trade row is written at open
// and rewritten exactly once at close.
type Simulator struct {
	cfg     SimulatorConfig
	trades  domrepo.TradeStore
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	logger  *logger.Logger
}

func NewSimulator(cfg SimulatorConfig, trades domrepo.TradeStore, events domrepo.EventPublisher, metrics domrepo.Metrics, lgr *logger.Logger) *Simulator {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.8
	}
	if cfg.MaxHoldingMinutes <= 0 {
		cfg.MaxHoldingMinutes = 1440
	}
	if cfg.CapitalBase <= 0 {
		cfg.CapitalBase = 1000
	}
	return &Simulator{
		cfg:     cfg,
		trades:  trades,
		events:  events,
		metrics: metrics,
		logger:  lgr,
	}
}

// Update processes one batch of signals, closing positions whose exit
// conditions hold and opening positions for qualifying entries.
func (s *Simulator) Update(ctx context.Context, signals []*models.Signal) error {
	open, err := s.trades.OpenTrades(ctx)
	if err != nil {
		return fmt.Errorf("load open trades: %w", err)
	}
	openByCurrency := make(map[string]*models.PaperTrade, len(open))
	for _, t := range open {
		openByCurrency[t.Currency] = t
	}

	for _, sig := range signals {
		if trade, ok := openByCurrency[sig.Currency]; ok {
			if err := s.maybeClose(ctx, trade, sig); err != nil {
				s.logError("close trade", sig.Currency, err)
			}
			continue
		}
		if err := s.maybeOpen(ctx, sig); err != nil {
			s.logError("open trade", sig.Currency, err)
		}
	}
	return nil
}

func (s *Simulator) maybeOpen(ctx context.Context, sig *models.Signal) error {
	isEntry := (sig.Regime == models.RegimeRising || sig.Regime == models.RegimeHigh) &&
		sig.Confidence >= s.cfg.MinConfidence &&
		sig.RAEV > s.cfg.MinRAEV
	if !isEntry {
		return nil
	}

	// Duplicate opens for the same asset at the same instant are skipped.
	exists, err := s.trades.Exists(ctx, sig.Currency, sig.Timestamp)
	if err != nil {
		return fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil
	}

	snapshot, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal snapshot: %w", err)
	}

	trade := &models.PaperTrade{
		ID:             uuid.NewString(),
		Currency:       sig.Currency,
		EntryTimestamp: sig.Timestamp,
		EntryAPR:       sig.APR,
		WithdrawalFee:  sig.WithdrawalFee,
		SignalSnapshot: string(snapshot),
	}
	if err := s.trades.Open(ctx, trade); err != nil {
		return fmt.Errorf("persist open: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTradeOpened(sig.Currency)
	}
	s.publishEvent(ctx, &models.TradeEvent{
		Type:      "opened",
		TradeID:   trade.ID,
		Currency:  trade.Currency,
		EntryAPR:  trade.EntryAPR,
		EntryTime: trade.EntryTimestamp,
	})
	if s.logger != nil {
		s.logger.Info("paper trade opened",
			logger.String("currency", sig.Currency),
			logger.Float64("apr", sig.APR),
			logger.String("regime", sig.Regime.String()))
	}
	return nil
}

func (s *Simulator) maybeClose(ctx context.Context, trade *models.PaperTrade, sig *models.Signal) error {
	holdingMinutes := sig.Timestamp.Sub(trade.EntryTimestamp).Minutes()
	if holdingMinutes < 0 {
		holdingMinutes = 0
	}

	// First matching reason wins.
	var reason string
	switch {
	case sig.Regime == models.RegimeDecay:
		reason = models.ExitReasonDecay
	case sig.RAEV < 0:
		reason = models.ExitReasonNegativeEV
	case holdingMinutes >= float64(s.cfg.MaxHoldingMinutes):
		reason = models.ExitReasonMaxDuration
	default:
		return nil
	}

	earnHours := earnHours(trade.EntryTimestamp, sig.Timestamp)
	borrowHours := int(math.Ceil(holdingMinutes / 60.0))
	if borrowHours < 1 {
		borrowHours = 1
	}

	capital := s.cfg.CapitalBase
	avgAPR := (trade.EntryAPR + sig.APR) / 2
	grossYield := capital * (avgAPR / 100.0) / 8760.0 * float64(earnHours)
	borrowCost := capital * (sig.BorrowCostAPR / 100.0) / 8760.0 * float64(borrowHours)
	netPnL := grossYield - borrowCost - trade.WithdrawalFee
	roiPct := netPnL / capital * 100.0

	exitTS := sig.Timestamp
	trade.ExitTimestamp = &exitTS
	trade.ExitAPR = sig.APR
	trade.HoldingMinutes = int(holdingMinutes)
	trade.RealizedPnL = roiPct
	trade.BorrowCost = borrowCost
	trade.ExitReason = fmt.Sprintf("%s (Earn:%dh, Borrow:%dh)", reason, earnHours, borrowHours)

	if err := s.trades.Close(ctx, trade); err != nil {
		return fmt.Errorf("persist close: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTradeClosed(trade.Currency, reason, roiPct)
	}
	s.publishEvent(ctx, &models.TradeEvent{
		Type:        "closed",
		TradeID:     trade.ID,
		Currency:    trade.Currency,
		EntryAPR:    trade.EntryAPR,
		ExitAPR:     trade.ExitAPR,
		EntryTime:   trade.EntryTimestamp,
		ExitTime:    trade.ExitTimestamp,
		RealizedPnL: trade.RealizedPnL,
		ExitReason:  trade.ExitReason,
	})
	if s.logger != nil {
		s.logger.Info("paper trade closed",
			logger.String("currency", trade.Currency),
			logger.String("reason", reason),
			logger.Float64("pnl_pct", roiPct))
	}
	return nil
}

// earnHours counts full clock hours between the first hour boundary
// strictly after entry and the exit. Entry 12:30, exit 14:10 gives
// boundary 13:00 and one full hour (13:00 to 14:10 is 70 minutes).
func earnHours(entry, exit time.Time) int {
	boundary := util.NextHourBoundary(entry)
	if !exit.After(boundary) {
		return 0
	}
	return int(exit.Sub(boundary).Hours())
}

func (s *Simulator) publishEvent(ctx context.Context, event *models.TradeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTradeEvent(ctx, event); err != nil && s.logger != nil {
		s.logger.Warn("publish trade event failed",
			logger.String("currency", event.Currency),
			logger.Error(err))
	}
}

func (s *Simulator) logError(op, currency string, err error) {
	if s.logger != nil {
		s.logger.Error(op+" failed",
			logger.String("currency", currency),
			logger.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordError("simulation")
	}
}
