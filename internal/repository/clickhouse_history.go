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

// ClickHouseHistoryStore implements HistoryStore on ClickHouse.
type ClickHouseHistoryStore struct {
	db *sql.DB
}

func NewClickHouseHistoryStore(db *sql.DB) repository.HistoryStore {
	return &ClickHouseHistoryStore{db: db}
}

func (s *ClickHouseHistoryStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseHistoryStore) Store(ctx context.Context, obs *models.Observation) error {
	return s.StoreBatch(ctx, []*models.Observation{obs})
}

func (s *ClickHouseHistoryStore) StoreBatch(ctx context.Context, batch []*models.Observation) error {
	if len(batch) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips; chunked so one
	// statement stays bounded.
	const chunkSize = 2000
	for start := 0; start < len(batch); start += chunkSize {
		end := start + chunkSize
		if end > len(batch) {
			end = len(batch)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, obs := range batch[start:end] {
			if obs == nil || obs.Currency == "" || obs.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, obs.Currency, obs.Timestamp.UTC(), obs.APR, obs.TVL, obs.Source)
		}
		if len(values) == 0 {
			continue
		}
		q := "INSERT INTO aprsight.apr_history (currency, ts, apr, tvl, source) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseHistoryStore) History(ctx context.Context, currency string, from, to time.Time, limit int) ([]*models.Observation, error) {
	q := `SELECT currency, ts, apr, tvl, source
		FROM aprsight.apr_history FINAL
		WHERE currency = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC`
	args := []interface{}{currency, from.UTC(), to.UTC()}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*models.Observation
	for rows.Next() {
		var obs models.Observation
		var ts time.Time
		if err := rows.Scan(&obs.Currency, &ts, &obs.APR, &obs.TVL, &obs.Source); err != nil {
			return nil, err
		}
		obs.Timestamp = ts.UTC()
		out = append(out, &obs)
	}
	return out, rows.Err()
}

func (s *ClickHouseHistoryStore) ActiveCurrencies(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT currency FROM aprsight.apr_history WHERE ts >= ? ORDER BY currency",
		since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query active currencies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *ClickHouseHistoryStore) RecordIngestRun(ctx context.Context, run *models.IngestRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO aprsight.ingest_runs (run_id, source, started_at, finished_at, rows, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Source, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		uint32(run.Rows), run.Status, run.Error)
	if err != nil {
		return fmt.Errorf("insert ingest run: %w", err)
	}
	return nil
}

func (s *ClickHouseHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseHistoryStore) Close() error {
	return nil // Managed by pkg
}
