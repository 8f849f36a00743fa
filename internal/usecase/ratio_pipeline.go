package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"FinRatio/internal/domain/models"
	drepo "FinRatio/internal/domain/repository"
	dservice "FinRatio/internal/domain/service"
	pcache "FinRatio/pkg/cache"
	applogger "FinRatio/pkg/logger"
)

// FetchPolicy decides what a failed snapshot fetch does to a run.
type FetchPolicy string

const (
	// FetchAbort ends the run on the first failed fetch and publishes nothing.
	FetchAbort FetchPolicy = "abort"
	// FetchSkip leaves the ticker out of that group and records the error in the report.
	FetchSkip FetchPolicy = "skip"
)

const runLockKey = "lock:run"

// ErrRunInProgress is returned when a run is triggered while another one is active.
var ErrRunInProgress = errors.New("a ratio run is already in progress")

// PipelineConfig holds the run parameters.
type PipelineConfig struct {
	Tickers    []string
	FetchDelay time.Duration
	Policy     FetchPolicy
	RunTimeout time.Duration
}

// RatioPipeline fetches snapshots ticker by ticker, computes the three ratio groups
// and publishes the resulting report.
type RatioPipeline struct {
	provider drepo.FundamentalsProvider
	calc     dservice.Calculator
	holder   *ReportHolder
	metrics  drepo.Metrics
	store    drepo.RatioStore
	pub      drepo.RatioPublisher
	locker   pcache.Service
	cfg      PipelineConfig
	l        *applogger.Logger

	running atomic.Bool
	newID   func() string
	now     func() time.Time
}

// NewRatioPipeline creates a pipeline. store, pub and locker are optional.
func NewRatioPipeline(
	provider drepo.FundamentalsProvider,
	calc dservice.Calculator,
	holder *ReportHolder,
	metrics drepo.Metrics,
	cfg PipelineConfig,
	l *applogger.Logger,
) *RatioPipeline {
	if cfg.Policy == "" {
		cfg.Policy = FetchAbort
	}
	return &RatioPipeline{
		provider: provider,
		calc:     calc,
		holder:   holder,
		metrics:  metrics,
		cfg:      cfg,
		l:        l,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithStore persists every finished report.
func (p *RatioPipeline) WithStore(s drepo.RatioStore) *RatioPipeline { p.store = s; return p }

// WithPublisher fans every finished report out.
func (p *RatioPipeline) WithPublisher(pub drepo.RatioPublisher) *RatioPipeline { p.pub = pub; return p }

// WithLocker guards runs with a shared lock so only one replica runs at a time.
func (p *RatioPipeline) WithLocker(c pcache.Service) *RatioPipeline { p.locker = c; return p }

// Tickers returns the configured ticker list.
func (p *RatioPipeline) Tickers() []string { return append([]string(nil), p.cfg.Tickers...) }

// Running reports whether a run is active in this process.
func (p *RatioPipeline) Running() bool { return p.running.Load() }

// Latest returns the last published report.
func (p *RatioPipeline) Latest() (*models.Report, bool) { return p.holder.Latest() }

// Run executes one full pass over the configured tickers.
func (p *RatioPipeline) Run(ctx context.Context) (*models.Report, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)

	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}

	if p.locker != nil {
		ok, err := p.locker.TryLock(ctx, runLockKey, p.lockTTL())
		if err != nil {
			p.l.Warn("run lock unavailable, continuing without it", applogger.Error(err))
		} else if !ok {
			return nil, ErrRunInProgress
		} else {
			defer func() {
				if err := p.locker.Unlock(context.WithoutCancel(ctx), runLockKey); err != nil {
					p.l.Warn("run unlock failed", applogger.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	r := &models.Report{
		RunID:     p.newID(),
		StartedAt: p.now(),
		Tickers:   p.Tickers(),
	}
	log := p.l.With(applogger.String("run_id", r.RunID))
	log.Info("ratio run started",
		applogger.Strings("tickers", r.Tickers),
		applogger.String("policy", string(p.cfg.Policy)),
	)

	pace := &pacer{delay: p.cfg.FetchDelay}
	for _, g := range models.Groups {
		if err := p.runGroup(ctx, g, r, pace, log); err != nil {
			p.metrics.RecordError("run")
			log.Error("ratio run aborted", applogger.String("group", string(g)), applogger.Error(err))
			return nil, err
		}
	}

	r.FinishedAt = p.now()
	p.holder.Set(r)
	p.persist(ctx, r, log)

	p.metrics.RecordRun(len(r.Tickers), len(r.Errors))
	p.metrics.RecordLatency("run", time.Since(start).Seconds())
	log.Info("ratio run finished",
		applogger.Int("general", len(r.General)),
		applogger.Int("value", len(r.Value)),
		applogger.Int("solvency", len(r.Solvency)),
		applogger.Int("failed", len(r.Errors)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return r, nil
}

func (p *RatioPipeline) lockTTL() time.Duration {
	if p.cfg.RunTimeout > 0 {
		return p.cfg.RunTimeout
	}
	return 10 * time.Minute
}

// runGroup fetches every ticker once for group g and appends its records to r.
func (p *RatioPipeline) runGroup(ctx context.Context, g models.Group, r *models.Report, pace *pacer, log *applogger.Logger) error {
	for _, ticker := range r.Tickers {
		if err := pace.wait(ctx); err != nil {
			return fmt.Errorf("%s pass: %w", g, err)
		}

		fetchStart := time.Now()
		snap, err := p.provider.Fetch(ctx, ticker)
		p.metrics.RecordLatency("fetch", time.Since(fetchStart).Seconds())
		p.metrics.RecordFetch(ticker, err == nil)
		if err != nil {
			if p.cfg.Policy == FetchAbort || ctx.Err() != nil {
				return fmt.Errorf("%s pass: fetch %s: %w", g, ticker, err)
			}
			p.metrics.RecordError("fetch")
			log.Warn("snapshot fetch failed, skipping ticker",
				applogger.String("group", string(g)),
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
			r.Errors = append(r.Errors, models.FetchError{Ticker: ticker, Group: g, Error: err.Error()})
			continue
		}

		var rec models.Record
		switch g {
		case models.GroupGeneral:
			v := p.calc.General(snap)
			r.General = append(r.General, v)
			rec = v
		case models.GroupValue:
			v := p.calc.ValueCreation(snap)
			r.Value = append(r.Value, v)
			rec = v
		case models.GroupSolvency:
			v := p.calc.Solvency(snap)
			r.Solvency = append(r.Solvency, v)
			rec = v
		}
		p.countUnavailable(g, rec)
	}
	return nil
}

// pacer holds each fetch back until delay has passed since the previous fetch completed.
type pacer struct {
	delay   time.Duration
	started bool
}

func (pc *pacer) wait(ctx context.Context) error {
	if !pc.started || pc.delay <= 0 {
		pc.started = true
		return ctx.Err()
	}
	t := time.NewTimer(pc.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *RatioPipeline) countUnavailable(g models.Group, rec models.Record) {
	for _, f := range rec.Fields() {
		if !f.IsText && !f.Value.Available() {
			p.metrics.RecordUnavailable(g, f.Name)
		}
	}
}

// persist stores and publishes the report. Failures are logged and counted only.
func (p *RatioPipeline) persist(ctx context.Context, r *models.Report, log *applogger.Logger) {
	ctx = context.WithoutCancel(ctx)
	if p.store != nil {
		if err := p.store.StoreReport(ctx, r); err != nil {
			p.metrics.RecordError("store")
			log.Error("report store failed", applogger.Error(err))
		}
	}
	if p.pub != nil {
		if err := p.pub.PublishReport(ctx, r); err != nil {
			p.metrics.RecordError("publish")
			log.Error("report publish failed", applogger.Error(err))
		}
	}
}

// TickerRatios computes all three groups for one ticker on demand. The ticker need not be configured.
func (p *RatioPipeline) TickerRatios(ctx context.Context, ticker string) (models.TickerRatios, error) {
	start := time.Now()
	snap, err := p.provider.Fetch(ctx, ticker)
	p.metrics.RecordFetch(ticker, err == nil)
	if err != nil {
		p.metrics.RecordError("fetch")
		return models.TickerRatios{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	out := p.calc.All(snap)
	p.metrics.RecordLatency("ticker", time.Since(start).Seconds())
	return out, nil
}
