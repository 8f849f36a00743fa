package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("finnhub:\n  api_key: k\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}, c.Tickers)
	assert.Equal(t, 500*time.Millisecond, c.Pipeline.FetchDelay)
	assert.Equal(t, "abort", c.Pipeline.OnFetchError)
	assert.Equal(t, "https://finnhub.io/api/v1", c.Finnhub.BaseURL)
	assert.Equal(t, 0.03, c.Assumptions.RiskFreeRate)
	assert.Equal(t, 0.21, c.Assumptions.TaxRate)
	assert.Equal(t, 1.0, c.Assumptions.DefaultBeta)
	assert.False(t, c.Cache.Enabled)
	assert.Equal(t, 8080, c.Server.Port)
	assert.True(t, c.Server.CORS)
}

func TestParseNormalizesTickers(t *testing.T) {
	c, err := Parse([]byte(`
provider:
  type: fixture
  fixture_path: testdata/snapshots.yaml
tickers: [" aapl", "MSFT", "", "msft", "tsla "]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, c.Tickers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing api key", "tickers: [AAPL]\n", "finnhub.api_key"},
		{"unknown provider", "provider:\n  type: yahoo\n", "provider.type"},
		{"fixture without path", "provider:\n  type: fixture\n", "fixture_path"},
		{"bad policy", "finnhub:\n  api_key: k\npipeline:\n  on_fetch_error: retry\n", "on_fetch_error"},
		{"bad tax", "finnhub:\n  api_key: k\nassumptions:\n  tax_rate: 1.5\n", "tax_rate"},
		{"kafka without brokers", "finnhub:\n  api_key: k\nkafka:\n  enabled: true\n", "kafka.brokers"},
		{"queue without redis", "finnhub:\n  api_key: k\npipeline:\n  queue:\n    enabled: true\n", "pipeline.queue"},
		{"empty tickers", "finnhub:\n  api_key: k\ntickers: [\" \"]\n", "tickers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: [AAPL]\n"), 0o600))

	t.Setenv("FINNHUB_API_KEY", "secret")
	t.Setenv("TICKERS", "ibm, orcl")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_HOST", "cache.local")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", c.Finnhub.APIKey)
	assert.Equal(t, []string{"IBM", "ORCL"}, c.Tickers)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "cache.local", c.Cache.Redis.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "sample")

	c, err := LoadWithEnv(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "finnhub", c.Provider.Type)
	assert.Equal(t, "@every 6h", c.Pipeline.Schedule)
	assert.False(t, c.Pipeline.Queue.Enabled)
	assert.Equal(t, 1, c.Pipeline.Queue.Workers)
	assert.Equal(t, "finratio.ratios", c.Kafka.Topic)
}
