package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal  prometheus.Counter
	assetsCycled *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cleanAPR     *prometheus.GaugeVec
	regimeConf   *prometheus.GaugeVec
	tradesOpened *prometheus.CounterVec
	tradesClosed *prometheus.CounterVec
	realizedPnl  prometheus.Histogram
	ingestedRows *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aprsight_cycles_total",
				Help: "Total number of completed prediction cycles",
			},
		),
		assetsCycled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aprsight_assets_processed_total",
				Help: "Assets processed per cycle, by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aprsight_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cleanAPR: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aprsight_clean_apr",
				Help: "Latest conditioned net APR per asset",
			},
			[]string{"currency"},
		),
		regimeConf: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aprsight_regime_confidence",
				Help: "Dominant regime confidence per asset",
			},
			[]string{"currency", "regime"},
		),
		tradesOpened: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aprsight_paper_trades_opened_total",
				Help: "Paper trades opened",
			},
			[]string{"currency"},
		),
		tradesClosed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aprsight_paper_trades_closed_total",
				Help: "Paper trades closed, by exit reason",
			},
			[]string{"currency", "reason"},
		),
		realizedPnl: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aprsight_realized_pnl_pct",
				Help:    "Realized PnL of closed paper trades in percent",
				Buckets: []float64{-5, -2, -1, -0.5, -0.1, 0, 0.1, 0.5, 1, 2, 5},
			},
		),
		ingestedRows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aprsight_observations_ingested_total",
				Help: "Observation rows ingested into the history store",
			},
			[]string{"source"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aprsight_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle records one completed prediction cycle.
func (r *Recorder) RecordCycle() {
	r.cyclesTotal.Inc()
}

// RecordAssetOutcome records one processed asset with its outcome
// (signal, skipped, error).
func (r *Recorder) RecordAssetOutcome(outcome string) {
	r.assetsCycled.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSignal records the latest conditioned APR and regime confidence.
func (r *Recorder) RecordSignal(currency, regime string, aprClean, confidence float64) {
	r.cleanAPR.WithLabelValues(currency).Set(aprClean)
	r.regimeConf.WithLabelValues(currency, regime).Set(confidence)
}

// RecordTradeOpened records a paper trade open.
func (r *Recorder) RecordTradeOpened(currency string) {
	r.tradesOpened.WithLabelValues(currency).Inc()
}

// RecordTradeClosed records a paper trade close with its realized PnL.
func (r *Recorder) RecordTradeClosed(currency, reason string, pnl float64) {
	r.tradesClosed.WithLabelValues(currency, reason).Inc()
	r.realizedPnl.Observe(pnl)
}

// RecordIngested records observation rows written by the ingest handler.
func (r *Recorder) RecordIngested(source string, n int) {
	r.ingestedRows.WithLabelValues(source).Add(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
