package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AprSight/internal/usecase"
	pkgch "AprSight/pkg/clickhouse"
	"AprSight/pkg/config"
	xhttp "AprSight/pkg/http"
	pkgkafka "AprSight/pkg/kafka"
	applogger "AprSight/pkg/logger"
	"AprSight/pkg/queue"
	"AprSight/pkg/scheduler"
)

// App owns the engine lifecycle: the prediction scheduler, the Kafka
// observation consumer, the Redis maintenance queue, and the HTTP API.
type App struct {
	cfg    *config.Config
	logger *applogger.Logger

	chClient   *pkgch.Client
	httpServer *xhttp.Server
	handler    xhttp.Handler

	pipeline    *usecase.Pipeline
	survivalJob *usecase.SurvivalMaintenanceJob

	consumer   *pkgkafka.Consumer
	obsHandler *usecase.ObservationsHandler

	queuePub  *queue.RedisQueue
	queueCons *queue.RedisQueue

	schedules *scheduler.Group
	closers   []func() error
}

// New assembles the application from its wired components. Optional
// pieces (Kafka consumer, Redis queue) may be nil and are skipped.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	pipeline *usecase.Pipeline,
	survivalJob *usecase.SurvivalMaintenanceJob,
	consumer *pkgkafka.Consumer,
	obsHandler *usecase.ObservationsHandler,
	queuePub *queue.RedisQueue,
	queueCons *queue.RedisQueue,
) *App {
	return &App{
		cfg:         cfg,
		logger:      lgr,
		chClient:    chClient,
		handler:     handler,
		pipeline:    pipeline,
		survivalJob: survivalJob,
		consumer:    consumer,
		obsHandler:  obsHandler,
		queuePub:    queuePub,
		queueCons:   queueCons,
		schedules:   scheduler.NewGroup(),
	}
}

// AddCloser registers extra cleanup to run at shutdown, after the
// schedulers and servers have stopped.
func (a *App) AddCloser(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Run starts every component and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithHost("0.0.0.0"),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	if a.consumer != nil && a.obsHandler != nil {
		a.consumer.RegisterHandler(a.obsHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started",
			applogger.String("topic", a.obsHandler.Topic()))
	}

	if a.queueCons != nil {
		if err := a.queueCons.Start(); err != nil {
			a.logger.Error("maintenance queue start error", applogger.Error(err))
		} else {
			a.queueCons.StartRetryProcessor()
			a.logger.Info("maintenance queue consumer started")
		}
	}

	a.schedules.Add(scheduler.NewPeriodic(
		"prediction_cycle",
		a.cfg.Engine.CycleInterval,
		a.pipeline.RunCycle,
		a.logger,
		scheduler.WithImmediate(),
	))
	a.schedules.Add(scheduler.NewPeriodic(
		"survival_maintenance",
		a.cfg.Maintenance.SurvivalInterval,
		a.enqueueSurvivalMaintenance,
		a.logger,
	))
	a.schedules.Start()
	a.logger.Info("schedulers started",
		applogger.Duration("cycle_interval", a.cfg.Engine.CycleInterval),
		applogger.Duration("survival_interval", a.cfg.Maintenance.SurvivalInterval))

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// enqueueSurvivalMaintenance hands the retrain to the Redis queue, or
// runs it inline when no queue is configured.
func (a *App) enqueueSurvivalMaintenance(ctx context.Context) error {
	payload := usecase.SurvivalMaintenancePayload{
		TriggeredAt:  time.Now().UTC().Format(time.RFC3339),
		LookbackDays: 30,
	}
	if a.queuePub != nil {
		return a.queuePub.Enqueue(ctx, usecase.SurvivalMaintenanceJobName, payload)
	}
	return a.survivalJob.Handle(ctx, payload)
}

func (a *App) shutdown(ctx context.Context) error {
	a.schedules.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("http shutdown error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.queueCons != nil {
		if err := a.queueCons.Stop(shutdownCtx); err != nil {
			a.logger.Warn("maintenance queue stop error", applogger.Error(err))
		}
	}
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
