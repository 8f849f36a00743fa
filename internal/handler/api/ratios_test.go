package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRatio/internal/domain/models"
	icache "FinRatio/internal/service/cache"
	"FinRatio/internal/service/finnhub"
	"FinRatio/internal/service/ratelimit"
	"FinRatio/internal/usecase"
	xlogger "FinRatio/pkg/logger"
)

type fakeService struct {
	report  *models.Report
	running bool
	calls   int
	err     error
}

func (s *fakeService) Latest() (*models.Report, bool) { return s.report, s.report != nil }
func (s *fakeService) Running() bool                  { return s.running }
func (s *fakeService) Tickers() []string              { return []string{"AAA"} }

func (s *fakeService) TickerRatios(_ context.Context, ticker string) (models.TickerRatios, error) {
	s.calls++
	if s.err != nil {
		return models.TickerRatios{}, s.err
	}
	return models.TickerRatios{
		Ticker:   ticker,
		General:  models.GeneralRatios{Ticker: ticker, ROE: models.Num(0.2)},
		Value:    models.ValueCreation{Ticker: ticker, Verdict: models.VerdictCreating},
		Solvency: models.SolvencyRatios{Ticker: ticker},
	}, nil
}

type fakeTrigger struct {
	err   error
	calls int
}

func (f *fakeTrigger) Trigger(context.Context, string) error {
	f.calls++
	return f.err
}

func sampleReport() *models.Report {
	return &models.Report{
		RunID:      "run-1",
		FinishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Tickers:    []string{"AAA"},
		General:    []models.GeneralRatios{{Ticker: "AAA", ROE: models.Num(0.2)}},
		Value:      []models.ValueCreation{{Ticker: "AAA", Verdict: models.VerdictCreating, WACC: models.Num(0.06)}},
		Solvency:   []models.SolvencyRatios{{Ticker: "AAA", CurrentRatio: models.Num(2)}},
	}
}

func setup(svc *fakeService, trig *fakeTrigger, rl *ratelimit.Limiter) (*echo.Echo, *RatiosHandler) {
	e := echo.New()
	h := NewRatiosHandler(xlogger.Nop(), svc, trig, rl)
	h.RegisterRoutes(e)
	return e, h
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestReportNotReady(t *testing.T) {
	e, _ := setup(&fakeService{}, &fakeTrigger{}, nil)

	rec := do(e, http.MethodGet, "/api/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReport(t *testing.T) {
	e, _ := setup(&fakeService{report: sampleReport()}, &fakeTrigger{}, nil)

	rec := do(e, http.MethodGet, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var r models.Report
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &r))
	assert.Equal(t, "run-1", r.RunID)
	require.Len(t, r.Value, 1)
	assert.Equal(t, models.VerdictCreating, r.Value[0].Verdict)
}

func TestGroupTable(t *testing.T) {
	e, _ := setup(&fakeService{report: sampleReport()}, &fakeTrigger{}, nil)

	rec := do(e, http.MethodGet, "/api/ratios/solvency")
	require.Equal(t, http.StatusOK, rec.Code)

	var tbl models.Table
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tbl))
	assert.Equal(t, "Debt Solvency Ratios", tbl.Title)
	assert.Equal(t, "Ticker", tbl.Columns[0])
	require.Len(t, tbl.Rows, 1)
}

func TestGroupRejectsUnknownGroup(t *testing.T) {
	e, _ := setup(&fakeService{report: sampleReport()}, &fakeTrigger{}, nil)

	rec := do(e, http.MethodGet, "/api/ratios/bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "group")
}

func TestTickerIsCached(t *testing.T) {
	svc := &fakeService{}
	e, h := setup(svc, &fakeTrigger{}, nil)
	h.SetCache(icache.NewTTLCache(), time.Minute)

	first := do(e, http.MethodGet, "/api/tickers/aaa")
	require.Equal(t, http.StatusOK, first.Code)
	second := do(e, http.MethodGet, "/api/tickers/AAA")
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, svc.calls)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	var tr models.TickerRatios
	require.NoError(t, json.Unmarshal(decode(t, second).Data, &tr))
	assert.Equal(t, "AAA", tr.Ticker)

	do(e, http.MethodGet, "/api/tickers/AAA?refresh=true")
	assert.Equal(t, 2, svc.calls)
}

func TestTickerErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", models.ErrTickerNotFound, http.StatusNotFound},
		{"upstream", &finnhub.APIError{StatusCode: 429, Endpoint: "/stock/metric", Message: "limit"}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := setup(&fakeService{err: tc.err}, &fakeTrigger{}, nil)
			rec := do(e, http.MethodGet, "/api/tickers/XYZ")
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestTickerRateLimited(t *testing.T) {
	e, _ := setup(&fakeService{}, &fakeTrigger{}, ratelimit.New(1, 0))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/tickers/AAA").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/api/tickers/AAA").Code)
}

func TestRefresh(t *testing.T) {
	trig := &fakeTrigger{}
	e, _ := setup(&fakeService{}, trig, nil)

	rec := do(e, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, trig.calls)

	trig.err = usecase.ErrRunInProgress
	rec = do(e, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealth(t *testing.T) {
	e, h := setup(&fakeService{report: sampleReport()}, &fakeTrigger{}, nil)

	rec := do(e, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"last_run_id":"run-1"`)

	h.AddHealthCheck("clickhouse", func(context.Context) error { return errors.New("connection refused") })
	rec = do(e, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

type fakeQueue struct {
	pending, dead int64
	err           error
}

func (q *fakeQueue) Pending(context.Context) (int64, error)     { return q.pending, q.err }
func (q *fakeQueue) DeadLetters(context.Context) (int64, error) { return q.dead, q.err }

func TestHealthReportsQueueDepth(t *testing.T) {
	e, h := setup(&fakeService{}, &fakeTrigger{}, nil)
	q := &fakeQueue{pending: 2, dead: 1}
	h.SetQueue(q)

	rec := do(e, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queue":{"pending":2,"dead_letters":1}`)

	q.err = errors.New("redis down")
	rec = do(e, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"queue"`)
}
