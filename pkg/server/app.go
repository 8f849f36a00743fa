package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinRatio/internal/usecase"
	"FinRatio/pkg/config"
	xhttp "FinRatio/pkg/http"
	applogger "FinRatio/pkg/logger"
	"FinRatio/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	pipeline  *usecase.RatioPipeline
	scheduler *usecase.Scheduler
	queue     *queue.RedisQueue
	server    *xhttp.Server
	logSink   applogger.Publisher
}

// New creates a new App instance with all dependencies. q may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.RatioPipeline,
	scheduler *usecase.Scheduler,
	q *queue.RedisQueue,
	srv *xhttp.Server,
) *App {
	return &App{
		cfg:       cfg,
		log:       l,
		pipeline:  pipeline,
		scheduler: scheduler,
		queue:     q,
		server:    srv,
	}
}

// SetLogSink forwards aggregated error logs to pub on the configured log topic.
func (a *App) SetLogSink(pub applogger.Publisher) { a.logSink = pub }

// Run starts the HTTP server, the queue workers and the scheduler and blocks until
// ctx is cancelled or an interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.logSink != nil && a.cfg.Kafka.LogTopic != "" {
		a.log.AddCollector(&applogger.CollectionConfig{
			Topic:     a.cfg.Kafka.LogTopic,
			Publisher: a.logSink,
		})
		defer a.log.RemoveCollector()
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return fmt.Errorf("start refresh queue: %w", err)
		}
	}

	if err := a.server.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	if err := a.scheduler.Start(a.cfg.Pipeline.Schedule); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if a.cfg.Pipeline.RunOnStart {
		a.scheduler.RunNow()
	}

	a.log.Info("finratio started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("provider", a.cfg.Provider.Type),
		applogger.Strings("tickers", a.pipeline.Tickers()),
		applogger.Int("port", a.cfg.Server.Port),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	a.scheduler.Stop()

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("refresh queue stop error", applogger.Error(err))
		}
	}

	if err := a.server.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}

// RunOnce executes a single run and prints the three tables to w.
func (a *App) RunOnce(ctx context.Context, w io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	return PrintReport(w, r)
}
