package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AprSight/internal/domain/models"
	"AprSight/internal/domain/repository"
)

// ClickHouseFeatureStore implements FeatureStore on ClickHouse. The
// upsert relies on ReplacingMergeTree(updated_at): recomputing a
// (currency, ts) key inserts a fresher row that wins under FINAL.
type ClickHouseFeatureStore struct {
	db *sql.DB
}

func NewClickHouseFeatureStore(db *sql.DB) repository.FeatureStore {
	return &ClickHouseFeatureStore{db: db}
}

func (s *ClickHouseFeatureStore) Upsert(ctx context.Context, snap *models.FeatureSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO aprsight.apr_features
		(currency, ts, apr_raw, apr_clean, slope, divergence, volatility, regime, confidence, ra_ev, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Currency, snap.Timestamp.UTC(), snap.APRRaw, snap.APRClean,
		snap.Slope, snap.Divergence, snap.Volatility,
		snap.Regime.String(), snap.Confidence, snap.RAEV, snap.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert feature snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot per currency ranked by cleaned
// APR, optionally filtered to one regime.
func (s *ClickHouseFeatureStore) Latest(ctx context.Context, limit int, regime string) ([]*models.FeatureSnapshot, error) {
	q := `SELECT currency, ts, apr_raw, apr_clean, slope, divergence, volatility, regime, confidence, ra_ev, updated_at
		FROM aprsight.apr_features FINAL
		WHERE (currency, ts) IN (
			SELECT currency, max(ts) FROM aprsight.apr_features GROUP BY currency
		)`
	args := []interface{}{}
	if regime != "" {
		q += " AND regime = ?"
		args = append(args, regime)
	}
	q += " ORDER BY apr_clean DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query latest features: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (s *ClickHouseFeatureStore) LatestFor(ctx context.Context, currency string) (*models.FeatureSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT currency, ts, apr_raw, apr_clean, slope, divergence, volatility, regime, confidence, ra_ev, updated_at
		FROM aprsight.apr_features FINAL
		WHERE currency = ?
		ORDER BY ts DESC LIMIT 1`, currency)
	if err != nil {
		return nil, fmt.Errorf("query latest for %s: %w", currency, err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return snaps[0], nil
}

func scanSnapshots(rows *sql.Rows) ([]*models.FeatureSnapshot, error) {
	var out []*models.FeatureSnapshot
	for rows.Next() {
		var snap models.FeatureSnapshot
		var ts, updated time.Time
		var regimeName string
		if err := rows.Scan(&snap.Currency, &ts, &snap.APRRaw, &snap.APRClean,
			&snap.Slope, &snap.Divergence, &snap.Volatility,
			&regimeName, &snap.Confidence, &snap.RAEV, &updated); err != nil {
			return nil, err
		}
		snap.Timestamp = ts.UTC()
		snap.UpdatedAt = updated.UTC()
		snap.Regime, _ = models.ParseRegime(regimeName)
		out = append(out, &snap)
	}
	return out, rows.Err()
}
