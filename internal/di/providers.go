package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	drepo "FinRatio/internal/domain/repository"
	dservice "FinRatio/internal/domain/service"
	"FinRatio/internal/handler/api"
	"FinRatio/internal/handler/web"
	internalrepo "FinRatio/internal/repository"
	icache "FinRatio/internal/service/cache"
	"FinRatio/internal/service/finnhub"
	"FinRatio/internal/service/fixture"
	"FinRatio/internal/service/ratelimit"
	"FinRatio/internal/services/ratios"
	"FinRatio/internal/usecase"
	pcache "FinRatio/pkg/cache"
	pkgch "FinRatio/pkg/clickhouse"
	"FinRatio/pkg/config"
	xhttp "FinRatio/pkg/http"
	pkgkafka "FinRatio/pkg/kafka"
	applogger "FinRatio/pkg/logger"
	"FinRatio/pkg/metrics"
	"FinRatio/pkg/queue"
	"FinRatio/pkg/server"
)

// Upstream is the fundamentals source before any caching.
type Upstream struct {
	drepo.FundamentalsProvider
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() drepo.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisCache connects to Redis when enabled. It returns nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*pcache.RedisCache, func(), error) {
	rc := cfg.Cache.Redis
	if !rc.Enabled {
		return nil, func() {}, nil
	}
	c, err := pcache.NewRedisCache(
		pcache.WithRedisHost(rc.Host),
		pcache.WithRedisPort(rc.Port),
		pcache.WithRedisPassword(rc.Password),
		pcache.WithRedisDB(rc.DB),
		pcache.WithRedisPrefix(rc.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, func() { _ = c.Close() }, nil
}

// ProvideSnapshotCache picks the snapshot cache backend: layered over Redis when it is
// available, in-memory otherwise. It returns nil when caching is disabled.
func ProvideSnapshotCache(cfg *config.Config, redis *pcache.RedisCache) (pcache.Service, func()) {
	if !cfg.Cache.Enabled {
		return nil, func() {}
	}
	if redis != nil {
		lc := pcache.NewLayeredCache(redis, pcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize))
		return lc, func() {}
	}
	mc := pcache.NewMemoryCache(pcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	return mc, func() { _ = mc.Close() }
}

// ProvideUpstream creates the configured fundamentals source.
func ProvideUpstream(cfg *config.Config, l *applogger.Logger) (Upstream, error) {
	switch cfg.Provider.Type {
	case "fixture":
		p, err := fixture.Load(cfg.Provider.FixturePath)
		if err != nil {
			return Upstream{}, fmt.Errorf("fixture provider: %w", err)
		}
		l.Info("fixture provider loaded",
			applogger.String("path", cfg.Provider.FixturePath),
			applogger.Int("tickers", p.Len()))
		return Upstream{p}, nil
	default:
		return Upstream{finnhub.New(finnhub.Config{
			APIKey:            cfg.Finnhub.APIKey,
			BaseURL:           cfg.Finnhub.BaseURL,
			Timeout:           cfg.Finnhub.Timeout,
			RequestsPerSecond: cfg.Finnhub.RequestsPerSecond,
			Freq:              cfg.Finnhub.Freq,
		}, l)}, nil
	}
}

// ProvideFundamentalsProvider wraps the upstream with the snapshot cache when one is configured.
func ProvideFundamentalsProvider(cfg *config.Config, up Upstream, cache pcache.Service, l *applogger.Logger) drepo.FundamentalsProvider {
	if cache == nil {
		return up.FundamentalsProvider
	}
	return icache.NewCachedProvider(up.FundamentalsProvider, cache, cfg.Cache.TTL, l)
}

// ProvideInvalidator exposes the snapshot cache to forced refreshes. It returns nil without a cache.
func ProvideInvalidator(p drepo.FundamentalsProvider) usecase.Invalidator {
	if inv, ok := p.(usecase.Invalidator); ok {
		return inv
	}
	return nil
}

// ProvideCalculator creates the ratio calculator with the configured assumptions.
func ProvideCalculator(cfg *config.Config) dservice.Calculator {
	return ratios.New(cfg.Assumptions)
}

// ProvideClickHouseClient creates a ClickHouse client when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideRatioStore creates the ClickHouse ratio history and its schema. It returns nil when disabled.
func ProvideRatioStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (drepo.RatioStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHRatioStore(ch, cfg.ClickHouse.Database, cfg.ClickHouse.Table, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
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
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideRatioPublisher creates the Kafka ratio publisher. It returns nil without a producer.
func ProvideRatioPublisher(cfg *config.Config, producer *pkgkafka.Producer) drepo.RatioPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaRatioPublisher(producer, cfg.Kafka.Topic)
}

// ProvideReportHolder creates the latest report holder.
func ProvideReportHolder() *usecase.ReportHolder {
	return usecase.NewReportHolder()
}

// ProvideRatioPipeline creates the ratio pipeline and attaches the optional sinks and run lock.
func ProvideRatioPipeline(
	cfg *config.Config,
	provider drepo.FundamentalsProvider,
	calc dservice.Calculator,
	holder *usecase.ReportHolder,
	m drepo.Metrics,
	store drepo.RatioStore,
	pub drepo.RatioPublisher,
	redis *pcache.RedisCache,
	l *applogger.Logger,
) *usecase.RatioPipeline {
	p := usecase.NewRatioPipeline(provider, calc, holder, m, usecase.PipelineConfig{
		Tickers:    cfg.Tickers,
		FetchDelay: cfg.Pipeline.FetchDelay,
		Policy:     usecase.FetchPolicy(cfg.Pipeline.OnFetchError),
		RunTimeout: cfg.Pipeline.RunTimeout,
	}, l)
	if store != nil {
		p.WithStore(store)
	}
	if pub != nil {
		p.WithPublisher(pub)
	}
	if redis != nil {
		p.WithLocker(redis)
	}
	return p
}

// ProvideScheduler creates the cron scheduler.
func ProvideScheduler(p *usecase.RatioPipeline, l *applogger.Logger) *usecase.Scheduler {
	return usecase.NewScheduler(p, l)
}

// ProvideRefreshQueue creates the Redis refresh queue when enabled. It returns nil otherwise.
func ProvideRefreshQueue(cfg *config.Config, redis *pcache.RedisCache, p *usecase.RatioPipeline, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Pipeline.Queue.Enabled || redis == nil {
		return nil
	}
	q := queue.NewRedisQueue(l, queue.Config{
		Workers:    cfg.Pipeline.Queue.Workers,
		RetryLimit: cfg.Pipeline.Queue.RetryLimit,
		RetryDelay: cfg.Pipeline.Queue.RetryDelay,
	}, redis.Client(), queue.WithKeyPrefix(cfg.Cache.Redis.Prefix+":queue"))
	q.RegisterJob(usecase.NewRefreshJob(p, l))
	return q
}

// ProvideRefresher creates the refresh trigger used by the API.
func ProvideRefresher(
	p *usecase.RatioPipeline,
	s *usecase.Scheduler,
	q *queue.RedisQueue,
	inv usecase.Invalidator,
	l *applogger.Logger,
) *usecase.Refresher {
	r := usecase.NewRefresher(p, s, l)
	if q != nil {
		r.WithQueue(q)
	}
	if inv != nil {
		r.WithInvalidator(inv)
	}
	return r
}

// ProvideHub creates the dashboard websocket hub and subscribes it to new reports.
func ProvideHub(holder *usecase.ReportHolder, l *applogger.Logger) *web.Hub {
	hub := web.NewHub(l)
	holder.Subscribe(hub)
	return hub
}

// ProvideHandlers builds the HTTP route handlers.
func ProvideHandlers(
	cfg *config.Config,
	p *usecase.RatioPipeline,
	r *usecase.Refresher,
	hub *web.Hub,
	q *queue.RedisQueue,
	redis *pcache.RedisCache,
	store drepo.RatioStore,
	l *applogger.Logger,
) []xhttp.Handler {
	ratiosHandler := api.NewRatiosHandler(l, p, r, ratelimit.New(cfg.API.RateCapacity, cfg.API.RateRefill))
	if redis != nil {
		ratiosHandler.SetCache(icache.NewSharedCache(redis), cfg.API.TickerCacheTTL)
		ratiosHandler.AddHealthCheck("redis", func(ctx context.Context) error {
			return redis.Client().Ping(ctx).Err()
		})
	} else {
		ratiosHandler.SetCache(icache.NewTTLCache(), cfg.API.TickerCacheTTL)
	}
	if store != nil {
		ratiosHandler.AddHealthCheck("clickhouse", store.Health)
	}
	if q != nil {
		ratiosHandler.SetQueue(q)
	}

	return []xhttp.Handler{
		ratiosHandler,
		web.NewDashboardHandler(l, p, hub),
	}
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(metricsPath, cfg.Server.SlowThreshold),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	p *usecase.RatioPipeline,
	s *usecase.Scheduler,
	q *queue.RedisQueue,
	srv *xhttp.Server,
	producer *pkgkafka.Producer,
) *server.App {
	app := server.New(cfg, l, p, s, q, srv)
	if producer != nil {
		app.SetLogSink(producer)
	}
	return app
}
