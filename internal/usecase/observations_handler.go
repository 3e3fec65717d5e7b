package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
	pkgkafka "AprSight/pkg/kafka"
	"AprSight/pkg/util"

	"github.com/google/uuid"
)

// ObservationsHandler consumes APR observations from Kafka and writes
// them to history storage. One message carries one batch from the
// upstream collector.
type ObservationsHandler struct {
	topic   string
	history domrepo.HistoryStore
	metrics domrepo.Metrics
}

func NewObservationsHandler(topic string, history domrepo.HistoryStore, metrics domrepo.Metrics) *ObservationsHandler {
	return &ObservationsHandler{topic: topic, history: history, metrics: metrics}
}

func (h *ObservationsHandler) Topic() string { return h.topic }

// incoming message schema:
// {source, observations: [{currency, timestamp, net_apr, tvl}]}
func (h *ObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Source       string `json:"source"`
		Observations []struct {
			Currency  string  `json:"currency"`
			Timestamp string  `json:"timestamp"`
			NetAPR    float64 `json:"net_apr"`
			TVL       float64 `json:"tvl"`
		} `json:"observations"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	batch := make([]*models.Observation, 0, len(m.Observations))
	for _, o := range m.Observations {
		if o.Currency == "" {
			continue
		}
		if math.IsNaN(o.NetAPR) || math.IsInf(o.NetAPR, 0) {
			h.metrics.RecordError("consumer_bad_apr")
			continue
		}
		ts, ok := util.ParseTime(o.Timestamp)
		if !ok {
			h.metrics.RecordError("consumer_bad_timestamp")
			continue
		}
		batch = append(batch, &models.Observation{
			Currency:  o.Currency,
			Timestamp: ts.UTC(),
			APR:       o.NetAPR,
			TVL:       o.TVL,
			Source:    m.Source,
		})
	}
	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	err := h.history.StoreBatch(ctx, batch)
	h.metrics.RecordLatency("history_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		h.recordRun(ctx, m.Source, start, len(batch), err)
		return fmt.Errorf("store batch: %w", err)
	}
	h.metrics.RecordIngested(m.Source, len(batch))
	h.recordRun(ctx, m.Source, start, len(batch), nil)
	return nil
}

// recordRun persists one ingest_runs row per consumed batch. Failures
// here are counted but never fail the message: run tracking is health
// telemetry, not part of the ingest contract.
func (h *ObservationsHandler) recordRun(ctx context.Context, source string, started time.Time, rows int, storeErr error) {
	run := &models.IngestRun{
		RunID:      uuid.NewString(),
		Source:     source,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Rows:       rows,
		Status:     "ok",
	}
	if storeErr != nil {
		run.Status = "error"
		run.Error = storeErr.Error()
	}
	if err := h.history.RecordIngestRun(ctx, run); err != nil {
		h.metrics.RecordError("consumer_run_record")
	}
}

var _ pkgkafka.MessageHandler = (*ObservationsHandler)(nil)
