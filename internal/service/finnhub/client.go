package finnhub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"FinRatio/internal/domain/models"
	drepo "FinRatio/internal/domain/repository"
	xhttp "FinRatio/pkg/http"
	"FinRatio/pkg/logger"
)

// DefaultBaseURL is the Finnhub REST root.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Config holds client settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Freq              string
}

// Client fetches company fundamentals from the Finnhub REST API.
type Client struct {
	apiKey  string
	baseURL string
	freq    string
	http    *xhttp.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

var _ drepo.FundamentalsProvider = (*Client)(nil)

// New creates a Finnhub client.
func New(cfg Config, l *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Freq == "" {
		cfg.Freq = "annual"
	}
	// Each Fetch issues three calls; allow them as one burst.
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		freq:    cfg.Freq,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout), xhttp.WithUserAgent("finratio/1.0")),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond*3), 3),
		log:     l,
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	c.log.Debug("finnhub request", logger.String("endpoint", path))

	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		Headers:     map[string]string{"X-Finnhub-Token": c.apiKey},
		QueryParams: params,
	}, dest)
	if err == nil {
		return nil
	}

	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &APIError{StatusCode: se.StatusCode, Endpoint: path, Message: string(se.Body)}
	}
	return err
}

// Profile returns the company profile.
func (c *Client) Profile(ctx context.Context, symbol string) (*CompanyProfile, error) {
	var out CompanyProfile
	if err := c.get(ctx, "/stock/profile2", map[string][]string{"symbol": {symbol}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Metrics returns the basic financials metric set.
func (c *Client) Metrics(ctx context.Context, symbol string) (*BasicFinancials, error) {
	var out BasicFinancials
	params := map[string][]string{"symbol": {symbol}, "metric": {"all"}}
	if err := c.get(ctx, "/stock/metric", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Financials returns the as-reported statements.
func (c *Client) Financials(ctx context.Context, symbol string) (*FinancialsReported, error) {
	var out FinancialsReported
	params := map[string][]string{"symbol": {symbol}, "freq": {c.freq}}
	if err := c.get(ctx, "/stock/financials-reported", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fetch retrieves and maps all fundamentals of one ticker.
func (c *Client) Fetch(ctx context.Context, ticker string) (*models.Snapshot, error) {
	profile, err := c.Profile(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", ticker, err)
	}
	if profile.Name == "" && profile.Ticker == "" {
		return nil, fmt.Errorf("profile %s: %w", ticker, models.ErrTickerNotFound)
	}

	metrics, err := c.Metrics(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("metrics %s: %w", ticker, err)
	}

	fin, err := c.Financials(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("financials %s: %w", ticker, err)
	}

	s := toSnapshot(ticker, profile, metrics, fin)
	c.log.Debug("finnhub snapshot mapped",
		logger.String("ticker", ticker),
		logger.Int("reports", len(fin.Data)),
		logger.Int("profile_keys", len(s.Profile)),
	)
	return s, nil
}
