package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinRatio/internal/domain/models"
	icache "FinRatio/internal/service/cache"
	"FinRatio/internal/service/finnhub"
	"FinRatio/internal/service/metrics"
	"FinRatio/internal/service/ratelimit"
	"FinRatio/internal/usecase"
	pcache "FinRatio/pkg/cache"
	xhttp "FinRatio/pkg/http"
	xlogger "FinRatio/pkg/logger"
	"FinRatio/pkg/util"
)

// RatioService is the read side of the ratio pipeline.
type RatioService interface {
	Latest() (*models.Report, bool)
	TickerRatios(ctx context.Context, ticker string) (models.TickerRatios, error)
	Running() bool
	Tickers() []string
}

// RefreshTrigger starts an out of band run.
type RefreshTrigger interface {
	Trigger(ctx context.Context, source string) error
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// QueueStats reports the depth of the refresh queue.
type QueueStats interface {
	Pending(ctx context.Context) (int64, error)
	DeadLetters(ctx context.Context) (int64, error)
}

// RatiosHandler serves the ratio JSON API.
type RatiosHandler struct {
	logger   *xlogger.Logger
	svc      RatioService
	refresh  RefreshTrigger
	cache    icache.BytesCache
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
	checks   map[string]HealthCheck
	queue    QueueStats
}

func NewRatiosHandler(logger *xlogger.Logger, svc RatioService, refresh RefreshTrigger, rl *ratelimit.Limiter) *RatiosHandler {
	metrics.Register()
	return &RatiosHandler{
		logger:   logger,
		svc:      svc,
		refresh:  refresh,
		rl:       rl,
		cacheTTL: 5 * time.Minute,
		checks:   map[string]HealthCheck{},
	}
}

// SetCache enables response caching for on-demand ticker lookups.
func (h *RatiosHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.cacheTTL = ttl
	}
}

// AddHealthCheck registers a dependency probe reported by /health.
func (h *RatiosHandler) AddHealthCheck(name string, check HealthCheck) { h.checks[name] = check }

// SetQueue reports the refresh queue depth on /health.
func (h *RatiosHandler) SetQueue(q QueueStats) { h.queue = q }

func (h *RatiosHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/report", h.Report)
	g.GET("/ratios/:group", h.Group)
	g.GET("/tickers/:symbol", h.Ticker)
	g.POST("/refresh", h.Refresh)
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *RatiosHandler) latest() (*models.Report, error) {
	r, ok := h.svc.Latest()
	if !ok {
		return nil, xhttp.NotFoundError("no report available yet")
	}
	return r, nil
}

// Report returns the latest full report.
func (h *RatiosHandler) Report(c echo.Context) error {
	defer observe("report", time.Now())

	r, err := h.latest()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return xhttp.SuccessResponse(c, r)
}

// Group returns one group of the latest report laid out as a table.
func (h *RatiosHandler) Group(c echo.Context) error {
	defer observe("group", time.Now())

	req := &models.GroupRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r, err := h.latest()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, r.Table(models.Group(req.Group)))
}

// Ticker computes all three groups for one symbol on demand.
func (h *RatiosHandler) Ticker(c echo.Context) error {
	const endpoint = "ticker"
	defer observe(endpoint, time.Now())

	req := &models.TickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := util.NormalizeSymbol(req.Symbol)

	if h.rl != nil && !h.rl.Allow(c.RealIP()+":"+endpoint) {
		h.logger.Warn("ticker lookup rate limited", xlogger.String("remote", c.RealIP()))
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}

	key := pcache.GenerateKey("ticker", symbol)
	if h.cache != nil && !req.Refresh {
		b, ok, err := h.cache.GetBytes(key)
		switch {
		case err != nil:
			h.logger.Warn("ticker cache get failed", xlogger.String("key", key), xlogger.Error(err))
		case ok:
			metrics.TickerCacheHits.WithLabelValues("hit").Inc()
			return c.JSONBlob(http.StatusOK, b)
		default:
			metrics.TickerCacheHits.WithLabelValues("miss").Inc()
		}
	}

	res, err := h.svc.TickerRatios(c.Request().Context(), symbol)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("ticker ratios failed", xlogger.String("ticker", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, tickerError(symbol, err))
	}

	body, err := json.Marshal(xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK), Data: res})
	if err != nil {
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(key, body, h.cacheTTL); err != nil {
			h.logger.Warn("ticker cache set failed", xlogger.String("key", key), xlogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, body)
}

func tickerError(symbol string, err error) error {
	var apiErr *finnhub.APIError
	switch {
	case errors.Is(err, models.ErrTickerNotFound):
		return xhttp.NotFoundErrorf("ticker %s not found", symbol).WithError(err)
	case errors.As(err, &apiErr):
		return xhttp.BadGatewayError("upstream data provider failed").
			WithParam("upstream_status", apiErr.StatusCode).
			WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.BadGatewayError("upstream data provider timed out").WithError(err)
	default:
		return xhttp.InternalError("could not compute ratios").WithError(err)
	}
}

// Refresh starts a new run in the background.
func (h *RatiosHandler) Refresh(c echo.Context) error {
	defer observe("refresh", time.Now())

	if err := h.refresh.Trigger(c.Request().Context(), "api"); err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("a run is already in progress"))
		}
		metrics.APIErrors.WithLabelValues("refresh").Inc()
		h.logger.Error("refresh trigger failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not start refresh").WithError(err))
	}
	return xhttp.AcceptedResponse(c, map[string]any{"status": "started"})
}

type healthResponse struct {
	Status     string            `json:"status"`
	Running    bool              `json:"running"`
	Tickers    []string          `json:"tickers"`
	LastRunID  string            `json:"last_run_id,omitempty"`
	LastRunAt  *time.Time        `json:"last_run_at,omitempty"`
	Components map[string]string `json:"components,omitempty"`
	Queue      *queueHealth      `json:"queue,omitempty"`
}

type queueHealth struct {
	Pending     int64 `json:"pending"`
	DeadLetters int64 `json:"dead_letters"`
}

// Health reports liveness, run state and dependency status.
func (h *RatiosHandler) Health(c echo.Context) error {
	res := healthResponse{
		Status:  "ok",
		Running: h.svc.Running(),
		Tickers: h.svc.Tickers(),
	}
	if r, ok := h.svc.Latest(); ok {
		res.LastRunID = r.RunID
		at := r.FinishedAt
		res.LastRunAt = &at
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if len(h.checks) > 0 {
		res.Components = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				res.Components[name] = err.Error()
				res.Status = "degraded"
				continue
			}
			res.Components[name] = "ok"
		}
	}
	if h.queue != nil {
		qh, err := queueDepth(ctx, h.queue)
		if err != nil {
			h.logger.Warn("queue depth unavailable", xlogger.Error(err))
			res.Status = "degraded"
		} else {
			res.Queue = qh
		}
	}

	status := http.StatusOK
	if res.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	return xhttp.DataResponse(c, status, res)
}

func queueDepth(ctx context.Context, q QueueStats) (*queueHealth, error) {
	pending, err := q.Pending(ctx)
	if err != nil {
		return nil, err
	}
	dead, err := q.DeadLetters(ctx)
	if err != nil {
		return nil, err
	}
	return &queueHealth{Pending: pending, DeadLetters: dead}, nil
}
