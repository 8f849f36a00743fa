package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRatio/internal/domain/models"
	"FinRatio/internal/services/ratios"
	pcache "FinRatio/pkg/cache"
	applogger "FinRatio/pkg/logger"
)

type fakeProvider struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]error
	block   chan struct{}
	latency time.Duration
}

func (p *fakeProvider) Fetch(ctx context.Context, ticker string) (*models.Snapshot, error) {
	p.mu.Lock()
	p.calls = append(p.calls, ticker)
	p.mu.Unlock()
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.latency > 0 {
		time.Sleep(p.latency)
	}
	if err := p.fail[ticker]; err != nil {
		return nil, err
	}
	s := models.NewSnapshot(ticker)
	s.Profile[models.KeyBeta] = 1.2
	s.BalanceSheet[models.TotalEquity] = []float64{500}
	s.BalanceSheet[models.TotalLiabilities] = []float64{500}
	s.BalanceSheet[models.Cash] = []float64{100}
	s.IncomeStatement[models.EBIT] = []float64{200}
	return s, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeMetrics struct {
	mu          sync.Mutex
	fetches     int
	errors      map[string]int
	unavailable int
	runs        int
	failed      int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: map[string]int{}} }

func (m *fakeMetrics) RecordFetch(string, bool) { m.mu.Lock(); m.fetches++; m.mu.Unlock() }
func (m *fakeMetrics) RecordError(kind string)  { m.mu.Lock(); m.errors[kind]++; m.mu.Unlock() }
func (m *fakeMetrics) RecordUnavailable(models.Group, string) {
	m.mu.Lock()
	m.unavailable++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) RecordRun(_ int, failed int) {
	m.mu.Lock()
	m.runs++
	m.failed = failed
	m.mu.Unlock()
}

type fakeStore struct {
	reports []*models.Report
	err     error
}

func (s *fakeStore) StoreReport(_ context.Context, r *models.Report) error {
	s.reports = append(s.reports, r)
	return s.err
}
func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

type fakePublisher struct{ reports []*models.Report }

func (p *fakePublisher) PublishReport(_ context.Context, r *models.Report) error {
	p.reports = append(p.reports, r)
	return nil
}
func (p *fakePublisher) Close() error { return nil }

type listener struct{ got []*models.Report }

func (l *listener) ReportReady(r *models.Report) { l.got = append(l.got, r) }

func newPipeline(p *fakeProvider, m *fakeMetrics, cfg PipelineConfig) *RatioPipeline {
	if cfg.Tickers == nil {
		cfg.Tickers = []string{"AAA", "BBB", "CCC"}
	}
	return NewRatioPipeline(p, ratios.New(models.DefaultAssumptions()), NewReportHolder(), m, cfg, applogger.Nop())
}

func TestRunProducesOrderedReport(t *testing.T) {
	prov := &fakeProvider{}
	m := newFakeMetrics()
	store := &fakeStore{}
	pub := &fakePublisher{}
	l := &listener{}
	p := newPipeline(prov, m, PipelineConfig{}).WithStore(store).WithPublisher(pub)
	p.holder.Subscribe(l)
	p.newID = func() string { return "run-1" }

	r, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", r.RunID)
	require.Len(t, r.General, 3)
	require.Len(t, r.Value, 3)
	require.Len(t, r.Solvency, 3)
	for i, ticker := range []string{"AAA", "BBB", "CCC"} {
		assert.Equal(t, ticker, r.General[i].Ticker)
		assert.Equal(t, ticker, r.Value[i].Ticker)
		assert.Equal(t, ticker, r.Solvency[i].Ticker)
	}
	assert.Equal(t, models.VerdictCreating, r.Value[0].Verdict)

	// one fetch per ticker per group pass
	assert.Equal(t, 9, prov.callCount())
	assert.Equal(t, 9, m.fetches)
	assert.Greater(t, m.unavailable, 0)
	assert.Equal(t, 1, m.runs)

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Same(t, r, latest)
	assert.Len(t, store.reports, 1)
	assert.Len(t, pub.reports, 1)
	assert.Len(t, l.got, 1)
}

func TestRunAbortsOnFetchError(t *testing.T) {
	boom := errors.New("upstream down")
	prov := &fakeProvider{fail: map[string]error{"BBB": boom}}
	store := &fakeStore{}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{Policy: FetchAbort}).WithStore(store)

	r, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "BBB")
	assert.Equal(t, 2, prov.callCount())
	_, ok := p.Latest()
	assert.False(t, ok)
	assert.Empty(t, store.reports)
}

func TestRunSkipsFailedTickers(t *testing.T) {
	prov := &fakeProvider{fail: map[string]error{"BBB": models.ErrTickerNotFound}}
	m := newFakeMetrics()
	p := newPipeline(prov, m, PipelineConfig{Policy: FetchSkip})

	r, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, r.General, 2)
	assert.Equal(t, "CCC", r.General[1].Ticker)
	require.Len(t, r.Errors, 3)
	assert.Equal(t, "BBB", r.Errors[0].Ticker)
	assert.Equal(t, models.GroupGeneral, r.Errors[0].Group)
	assert.Equal(t, models.GroupSolvency, r.Errors[2].Group)
	assert.Equal(t, 3, m.errors["fetch"])
	assert.Equal(t, 3, m.failed)
}

func TestRunPacesFetches(t *testing.T) {
	prov := &fakeProvider{}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{
		Tickers:    []string{"AAA", "BBB"},
		FetchDelay: 20 * time.Millisecond,
	})

	start := time.Now()
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	// six fetches, the first one is free
	assert.GreaterOrEqual(t, time.Since(start), 5*20*time.Millisecond)
}

func TestRunWaitsFullDelayAfterSlowFetch(t *testing.T) {
	prov := &fakeProvider{latency: 30 * time.Millisecond}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{
		Tickers:    []string{"AAA", "BBB"},
		FetchDelay: 20 * time.Millisecond,
	})

	start := time.Now()
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	// the delay runs from the end of each fetch, so it never overlaps fetch time
	assert.GreaterOrEqual(t, time.Since(start), 6*30*time.Millisecond+5*20*time.Millisecond)
}

func TestRunPacingHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	prov := &fakeProvider{}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{
		Tickers:    []string{"AAA", "BBB"},
		FetchDelay: time.Hour,
	})
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, prov.callCount())
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	prov := &fakeProvider{block: make(chan struct{})}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{Tickers: []string{"AAA"}})

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		done <- err
	}()
	require.Eventually(t, p.Running, time.Second, 5*time.Millisecond)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(prov.block)
	require.NoError(t, <-done)
	assert.False(t, p.Running())
}

func TestRunHonoursSharedLock(t *testing.T) {
	mem := pcache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	ok, err := mem.TryLock(context.Background(), runLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	p := newPipeline(&fakeProvider{}, newFakeMetrics(), PipelineConfig{}).WithLocker(mem)
	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	require.NoError(t, mem.Unlock(context.Background(), runLockKey))
	_, err = p.Run(context.Background())
	assert.NoError(t, err)
}

func TestRunTimeout(t *testing.T) {
	prov := &fakeProvider{block: make(chan struct{})}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{RunTimeout: 30 * time.Millisecond, Policy: FetchSkip})

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStoreFailureDoesNotFailRun(t *testing.T) {
	m := newFakeMetrics()
	p := newPipeline(&fakeProvider{}, m, PipelineConfig{}).WithStore(&fakeStore{err: errors.New("disk full")})

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, m.errors["store"])
}

func TestTickerRatios(t *testing.T) {
	prov := &fakeProvider{fail: map[string]error{"NOPE": models.ErrTickerNotFound}}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{})

	tr, err := p.TickerRatios(context.Background(), "ZZZ")
	require.NoError(t, err)
	assert.Equal(t, "ZZZ", tr.Ticker)
	assert.Equal(t, "ZZZ", tr.Solvency.Ticker)
	assert.Equal(t, 1, prov.callCount())

	_, err = p.TickerRatios(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrTickerNotFound)
}

type countingRunner struct {
	mu  sync.Mutex
	n   int
	err error
}

func (r *countingRunner) Run(context.Context) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return &models.Report{}, r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func TestSchedulerRunNow(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, applogger.Nop())
	require.NoError(t, s.Start(""))

	s.RunNow()
	require.Eventually(t, func() bool { return r.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&countingRunner{}, applogger.Nop())
	assert.Error(t, s.Start("not a cron schedule"))
}

func TestRefreshJob(t *testing.T) {
	r := &countingRunner{}
	j := NewRefreshJob(r, applogger.Nop())

	require.NoError(t, j.Handle(context.Background(), []byte(`{"source":"api"}`)))
	assert.Equal(t, 1, r.count())

	r.err = ErrRunInProgress
	assert.NoError(t, j.Handle(context.Background(), RefreshRequest{Source: "api"}))

	r.err = errors.New("boom")
	assert.Error(t, j.Handle(context.Background(), RefreshRequest{Source: "api"}))
}

type recordingQueue struct {
	types []string
	err   error
}

func (q *recordingQueue) PublishMessage(_ context.Context, msgType string, _ interface{}) error {
	q.types = append(q.types, msgType)
	return q.err
}

type countingInvalidator struct{ n int }

func (i *countingInvalidator) Invalidate(context.Context) error { i.n++; return nil }

func TestRefresherUsesQueue(t *testing.T) {
	p := newPipeline(&fakeProvider{}, newFakeMetrics(), PipelineConfig{})
	q := &recordingQueue{}
	inv := &countingInvalidator{}
	r := NewRefresher(p, NewScheduler(p, applogger.Nop()), applogger.Nop()).WithQueue(q).WithInvalidator(inv)

	require.NoError(t, r.Trigger(context.Background(), "api"))
	assert.Equal(t, []string{RefreshMessageType}, q.types)
	assert.Equal(t, 1, inv.n)

	q.err = errors.New("redis down")
	assert.ErrorContains(t, r.Trigger(context.Background(), "api"), "enqueue refresh")
}

func TestRefresherRunsInProcess(t *testing.T) {
	prov := &fakeProvider{}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{Tickers: []string{"AAA"}})
	s := NewScheduler(p, applogger.Nop())
	require.NoError(t, s.Start(""))
	t.Cleanup(s.Stop)

	r := NewRefresher(p, s, applogger.Nop())
	require.NoError(t, r.Trigger(context.Background(), "api"))

	require.Eventually(t, func() bool {
		_, ok := p.Latest()
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestRefresherRejectsWhileRunning(t *testing.T) {
	prov := &fakeProvider{block: make(chan struct{})}
	p := newPipeline(prov, newFakeMetrics(), PipelineConfig{Tickers: []string{"AAA"}})
	go func() { _, _ = p.Run(context.Background()) }()
	require.Eventually(t, p.Running, time.Second, 5*time.Millisecond)

	r := NewRefresher(p, NewScheduler(p, applogger.Nop()), applogger.Nop())
	assert.ErrorIs(t, r.Trigger(context.Background(), "api"), ErrRunInProgress)

	close(prov.block)
	require.Eventually(t, func() bool { return !p.Running() }, time.Second, 5*time.Millisecond)
}
