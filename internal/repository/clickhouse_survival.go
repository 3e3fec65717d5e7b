package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AprSight/internal/domain/models"
	"AprSight/internal/domain/repository"
)

// ClickHouseSurvivalStore implements SurvivalStore on ClickHouse.
// Replace-all per tier works through ReplacingMergeTree(updated_at):
// each maintenance run inserts a full fresh curve that supersedes the
// previous rows under FINAL.
type ClickHouseSurvivalStore struct {
	db *sql.DB
}

func NewClickHouseSurvivalStore(db *sql.DB) repository.SurvivalStore {
	return &ClickHouseSurvivalStore{db: db}
}

func (s *ClickHouseSurvivalStore) ReplaceCurve(ctx context.Context, curve *models.SurvivalCurve) error {
	if curve.Len() == 0 {
		return fmt.Errorf("empty curve for tier %s", curve.Tier)
	}

	values := make([]string, 0, curve.Len())
	args := make([]interface{}, 0, curve.Len()*5)
	updated := curve.UpdatedAt.UTC()
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	for minute, prob := range curve.Probs {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, string(curve.Tier), uint16(minute), prob, curve.Source, updated)
	}

	q := "INSERT INTO aprsight.survival_curves (tier, minute, survival_prob, source, updated_at) VALUES " + strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("replace curve: %w", err)
	}
	return nil
}

func (s *ClickHouseSurvivalStore) Curve(ctx context.Context, tier models.Tier) (*models.SurvivalCurve, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT minute, survival_prob, source, updated_at
		FROM aprsight.survival_curves FINAL
		WHERE tier = ?
		ORDER BY minute ASC`, string(tier))
	if err != nil {
		return nil, fmt.Errorf("query curve: %w", err)
	}
	defer rows.Close()

	curve := &models.SurvivalCurve{Tier: tier}
	for rows.Next() {
		var minute uint16
		var prob float64
		var source string
		var updated time.Time
		if err := rows.Scan(&minute, &prob, &source, &updated); err != nil {
			return nil, err
		}
		curve.Probs = append(curve.Probs, prob)
		curve.Source = source
		curve.UpdatedAt = updated.UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(curve.Probs) == 0 {
		return nil, nil
	}
	return curve, nil
}

// ClosedDurations returns holding minutes of closed trades whose entry
// APR falls in the tier's band, for survival refits.
func (s *ClickHouseSurvivalStore) ClosedDurations(ctx context.Context, tier models.Tier, since time.Time) ([]int, error) {
	var lo, hi float64
	switch tier {
	case models.Tier100to200:
		lo, hi = 0, 200
	case models.Tier200to400:
		lo, hi = 200, 400
	default:
		lo, hi = 400, 1e12
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT holding_minutes FROM aprsight.paper_trades FINAL
		WHERE exit_ts IS NOT NULL AND exit_ts >= ?
		AND entry_apr >= ? AND entry_apr < ?`,
		since.UTC(), lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query durations: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var minutes int32
		if err := rows.Scan(&minutes); err != nil {
			return nil, err
		}
		out = append(out, int(minutes))
	}
	return out, rows.Err()
}
