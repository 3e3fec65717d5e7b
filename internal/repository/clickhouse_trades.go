package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AprSight/internal/domain/models"
	"AprSight/internal/domain/repository"
)

// ClickHouseTradeStore implements TradeStore on ClickHouse. ClickHouse
// has no in-place UPDATE, so mutate-once-at-close is modeled with
// ReplacingMergeTree(version): the open inserts version 1, the close
// re-inserts the full row as version 2, and FINAL reads see only the
// winning version per (currency, entry_ts).
type ClickHouseTradeStore struct {
	db *sql.DB
}

func NewClickHouseTradeStore(db *sql.DB) repository.TradeStore {
	return &ClickHouseTradeStore{db: db}
}

const tradeColumns = `id, currency, entry_ts, exit_ts, entry_apr, exit_apr,
	holding_minutes, borrow_cost, withdrawal_fee, realized_pnl, exit_reason, signal_snapshot`

func (s *ClickHouseTradeStore) Open(ctx context.Context, trade *models.PaperTrade) error {
	return s.insert(ctx, trade, 1)
}

func (s *ClickHouseTradeStore) Close(ctx context.Context, trade *models.PaperTrade) error {
	if trade.ExitTimestamp == nil {
		return fmt.Errorf("close requires exit timestamp")
	}
	return s.insert(ctx, trade, 2)
}

func (s *ClickHouseTradeStore) insert(ctx context.Context, trade *models.PaperTrade, version uint8) error {
	var exitTS interface{}
	if trade.ExitTimestamp != nil {
		exitTS = trade.ExitTimestamp.UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO aprsight.paper_trades
		(`+tradeColumns+`, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.Currency, trade.EntryTimestamp.UTC(), exitTS,
		trade.EntryAPR, trade.ExitAPR, int32(trade.HoldingMinutes),
		trade.BorrowCost, trade.WithdrawalFee, trade.RealizedPnL,
		trade.ExitReason, trade.SignalSnapshot, version)
	if err != nil {
		return fmt.Errorf("insert trade v%d: %w", version, err)
	}
	return nil
}

func (s *ClickHouseTradeStore) OpenTrades(ctx context.Context) ([]*models.PaperTrade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM aprsight.paper_trades FINAL
		WHERE exit_ts IS NULL
		ORDER BY entry_ts ASC`)
	if err != nil {
		return nil, fmt.Errorf("query open trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (s *ClickHouseTradeStore) OpenTradeFor(ctx context.Context, currency string) (*models.PaperTrade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM aprsight.paper_trades FINAL
		WHERE currency = ? AND exit_ts IS NULL
		ORDER BY entry_ts DESC LIMIT 1`, currency)
	if err != nil {
		return nil, fmt.Errorf("query open trade: %w", err)
	}
	defer rows.Close()

	trades, err := scanTrades(rows)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, nil
	}
	return trades[0], nil
}

func (s *ClickHouseTradeStore) Exists(ctx context.Context, currency string, entryTS time.Time) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT count() FROM aprsight.paper_trades
		WHERE currency = ? AND entry_ts = ?`,
		currency, entryTS.UTC())
	var n uint64
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("check trade exists: %w", err)
	}
	return n > 0, nil
}

func (s *ClickHouseTradeStore) ClosedSince(ctx context.Context, since time.Time) ([]*models.PaperTrade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM aprsight.paper_trades FINAL
		WHERE exit_ts IS NOT NULL AND exit_ts >= ?
		ORDER BY exit_ts ASC`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query closed trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (s *ClickHouseTradeStore) Trades(ctx context.Context, status string, limit, offset int) ([]*models.PaperTrade, error) {
	q := `SELECT ` + tradeColumns + ` FROM aprsight.paper_trades FINAL`
	switch status {
	case "open":
		q += " WHERE exit_ts IS NULL"
	case "closed":
		q += " WHERE exit_ts IS NOT NULL"
	}
	q += " ORDER BY entry_ts DESC LIMIT ? OFFSET ?"

	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]*models.PaperTrade, error) {
	var out []*models.PaperTrade
	for rows.Next() {
		var t models.PaperTrade
		var entryTS time.Time
		var exitTS sql.NullTime
		var holding int32
		if err := rows.Scan(&t.ID, &t.Currency, &entryTS, &exitTS,
			&t.EntryAPR, &t.ExitAPR, &holding, &t.BorrowCost,
			&t.WithdrawalFee, &t.RealizedPnL, &t.ExitReason, &t.SignalSnapshot); err != nil {
			return nil, err
		}
		t.EntryTimestamp = entryTS.UTC()
		if exitTS.Valid {
			ts := exitTS.Time.UTC()
			t.ExitTimestamp = &ts
		}
		t.HoldingMinutes = int(holding)
		out = append(out, &t)
	}
	return out, rows.Err()
}
