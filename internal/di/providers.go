package di

import (
	"context"
	"fmt"
	"time"

	"AprSight/internal/domain/repository"
	"AprSight/internal/handler/api"
	internalrepo "AprSight/internal/repository"
	"AprSight/internal/services/conditioner"
	"AprSight/internal/services/features"
	"AprSight/internal/services/regime"
	"AprSight/internal/services/valuation"
	"AprSight/internal/usecase"
	"AprSight/pkg/cache"
	pkgch "AprSight/pkg/clickhouse"
	"AprSight/pkg/config"
	xhttp "AprSight/pkg/http"
	pkgkafka "AprSight/pkg/kafka"
	applogger "AprSight/pkg/logger"
	"AprSight/pkg/metrics"
	"AprSight/pkg/queue"
	"AprSight/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and applies the
// engine schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideHistoryStore creates the observation history store.
func ProvideHistoryStore(ch *pkgch.Client) repository.HistoryStore {
	return internalrepo.NewClickHouseHistoryStore(ch.DB())
}

// ProvideFeatureStore creates the feature snapshot store.
func ProvideFeatureStore(ch *pkgch.Client) repository.FeatureStore {
	return internalrepo.NewClickHouseFeatureStore(ch.DB())
}

// ProvideSurvivalStore creates the survival curve store.
func ProvideSurvivalStore(ch *pkgch.Client) repository.SurvivalStore {
	return internalrepo.NewClickHouseSurvivalStore(ch.DB())
}

// ProvideTradeStore creates the paper trade store.
func ProvideTradeStore(ch *pkgch.Client) repository.TradeStore {
	return internalrepo.NewClickHouseTradeStore(ch.DB())
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideKafkaProducer creates a Kafka producer for trade events.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the observation ingest consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideLiveHub creates the WebSocket broadcast hub.
func ProvideLiveHub(lgr *applogger.Logger) *api.LiveHub {
	return api.NewLiveHub(lgr)
}

// ProvideEventPublisher fans trade events out to Kafka and the live hub.
func ProvideEventPublisher(producer *pkgkafka.Producer, hub *api.LiveHub, cfg *config.Config) repository.EventPublisher {
	kafkaPub := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.TradeEventTopic)
	return internalrepo.NewFanoutPublisher(kafkaPub, hub)
}

// ProvideCache creates the API response cache. With Redis enabled the
// cache is layered (memory over Redis), otherwise memory only.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideSimulator creates the paper-trading simulator.
func ProvideSimulator(
	cfg *config.Config,
	trades repository.TradeStore,
	events repository.EventPublisher,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Simulator {
	return usecase.NewSimulator(usecase.SimulatorConfig{
		MinConfidence:     cfg.Engine.MinConfidence,
		MinRAEV:           cfg.Engine.MinRAEV,
		MaxHoldingMinutes: cfg.Engine.MaxHoldingMinutes,
		CapitalBase:       cfg.Engine.CapitalBase,
	}, trades, events, m, lgr)
}

// ProvidePipeline assembles the prediction pipeline with its signal
// processing services and attaches the live hub as the signal sink.
func ProvidePipeline(
	cfg *config.Config,
	history repository.HistoryStore,
	featureStore repository.FeatureStore,
	survival repository.SurvivalStore,
	simulator *usecase.Simulator,
	hub *api.LiveHub,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Pipeline {
	p := usecase.NewPipeline(
		usecase.PipelineConfig{
			LookbackHours:    cfg.Engine.LookbackHours,
			ActiveWindow:     cfg.Engine.ActiveWindow,
			MinHistoryPoints: cfg.Engine.MinHistoryPoints,
			HorizonMinutes:   cfg.Engine.HorizonMinutes,
		},
		history,
		featureStore,
		conditioner.New(),
		features.NewExtractor(),
		regime.NewEngine(),
		valuation.NewValuer(survival, cfg.Engine.RiskAversion, cfg.Maintenance.CurveMinutes),
		simulator,
		m,
		lgr,
	)
	p.SetSignalSink(hub)
	return p
}

// ProvideSurvivalJob creates the survival curve retrain job.
func ProvideSurvivalJob(
	cfg *config.Config,
	survival repository.SurvivalStore,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.SurvivalMaintenanceJob {
	return usecase.NewSurvivalMaintenanceJob(survival, m, lgr,
		cfg.Maintenance.CurveMinutes, cfg.Maintenance.MinTierSamples)
}

// ProvideObservationsHandler creates the Kafka observation ingest handler.
func ProvideObservationsHandler(
	cfg *config.Config,
	history repository.HistoryStore,
	m repository.Metrics,
) *usecase.ObservationsHandler {
	return usecase.NewObservationsHandler(cfg.Kafka.ObservationTopic, history, m)
}

// ProvideQueryUseCase creates the read API use case.
func ProvideQueryUseCase(
	cfg *config.Config,
	featureStore repository.FeatureStore,
	history repository.HistoryStore,
	trades repository.TradeStore,
) *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(featureStore, history, trades,
		usecase.NewPerformanceMonitor(trades),
		cfg.API.DefaultLimit, cfg.API.PerformanceWindowDays)
}

// ProvideHTTPHandler creates the HTTP API handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	queries *usecase.QueryUseCase,
	hub *api.LiveHub,
	c cache.Service,
	lgr *applogger.Logger,
) xhttp.Handler {
	h := api.NewPredictionHandler(queries, hub, cfg.API.CacheTTL, lgr)
	h.SetCache(c)
	return h
}

// Queues bundles the Redis maintenance queue endpoints. Both are nil
// when Redis is disabled; the scheduler then runs the job inline.
type Queues struct {
	Pub  *queue.RedisQueue
	Cons *queue.RedisQueue
}

// ProvideQueues creates the Redis-backed maintenance queue.
func ProvideQueues(
	cfg *config.Config,
	lgr *applogger.Logger,
	job *usecase.SurvivalMaintenanceJob,
) (Queues, error) {
	if !cfg.Redis.Enabled {
		return Queues{}, nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return Queues{}, fmt.Errorf("redis queue: %w", err)
	}
	client := redisCache.Client()
	pub := queue.NewRedisPublisher(lgr, client)
	cons := queue.NewRedisConsumer(lgr, &queue.QueueConfig{
		Workers:    1,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client, []queue.Job{job})
	return Queues{Pub: pub, Cons: cons}, nil
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	ch *pkgch.Client,
	handler xhttp.Handler,
	pipeline *usecase.Pipeline,
	job *usecase.SurvivalMaintenanceJob,
	consumer *pkgkafka.Consumer,
	obsHandler *usecase.ObservationsHandler,
	queues Queues,
	events repository.EventPublisher,
) *server.App {
	if queues.Pub != nil {
		// Repeated log lines are aggregated and shipped through the
		// queue instead of flooding stdout.
		lgr.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "log_aggregate",
			Publisher:      queues.Pub,
		})
	}
	app := server.New(cfg, lgr, ch, handler, pipeline, job, consumer, obsHandler, queues.Pub, queues.Cons)
	app.AddCloser(events.Close)
	return app
}
