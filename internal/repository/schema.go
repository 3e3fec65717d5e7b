package repository

// Schema statements executed at startup. ReplacingMergeTree gives the
// idempotent-upsert semantics the engine relies on: apr_history dedups
// replayed observations, apr_features keeps the freshest recompute per
// (currency, ts), paper_trades keeps the highest version per row so a
// close (version 2) supersedes its open (version 1) under FINAL reads.
var SchemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS aprsight`,

	`CREATE TABLE IF NOT EXISTS aprsight.apr_history (
		currency String,
		ts DateTime('UTC'),
		apr Float64,
		tvl Float64,
		source String
	) ENGINE = ReplacingMergeTree
	ORDER BY (currency, ts)
	TTL ts + INTERVAL 90 DAY`,

	`CREATE TABLE IF NOT EXISTS aprsight.apr_features (
		currency String,
		ts DateTime('UTC'),
		apr_raw Float64,
		apr_clean Float64,
		slope Float64,
		divergence Float64,
		volatility Float64,
		regime String,
		confidence Float64,
		ra_ev Float64,
		updated_at DateTime('UTC')
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (currency, ts)
	TTL ts + INTERVAL 90 DAY`,

	`CREATE TABLE IF NOT EXISTS aprsight.survival_curves (
		tier String,
		minute UInt16,
		survival_prob Float64,
		source String,
		updated_at DateTime('UTC')
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (tier, minute)`,

	`CREATE TABLE IF NOT EXISTS aprsight.paper_trades (
		id String,
		currency String,
		entry_ts DateTime('UTC'),
		exit_ts Nullable(DateTime('UTC')),
		entry_apr Float64,
		exit_apr Float64,
		holding_minutes Int32,
		borrow_cost Float64,
		withdrawal_fee Float64,
		realized_pnl Float64,
		exit_reason String,
		signal_snapshot String,
		version UInt8
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY (currency, entry_ts)`,

	`CREATE TABLE IF NOT EXISTS aprsight.ingest_runs (
		run_id String,
		source String,
		started_at DateTime('UTC'),
		finished_at DateTime('UTC'),
		rows UInt32,
		status String,
		error String
	) ENGINE = MergeTree
	ORDER BY started_at
	TTL started_at + INTERVAL 30 DAY`,
}
