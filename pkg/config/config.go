package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"FinRatio/internal/domain/models"
	"FinRatio/pkg/util"
)

type Config struct {
	Environment string             `yaml:"environment" default:"development"`
	Tickers     []string           `yaml:"tickers"`
	Logging     LoggingConfig      `yaml:"logging"`
	Server      ServerConfig       `yaml:"server"`
	Metrics     MetricsConfig      `yaml:"metrics"`
	Provider    ProviderConfig     `yaml:"provider"`
	Finnhub     FinnhubConfig      `yaml:"finnhub"`
	Pipeline    PipelineConfig     `yaml:"pipeline"`
	Assumptions models.Assumptions `yaml:"assumptions"`
	Cache       CacheConfig        `yaml:"cache"`
	API         APIConfig          `yaml:"api"`
	ClickHouse  ClickHouseConfig   `yaml:"clickhouse"`
	Kafka       KafkaConfig        `yaml:"kafka"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	CORS            bool          `yaml:"cors" default:"true"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type ProviderConfig struct {
	Type        string `yaml:"type" default:"finnhub"`
	FixturePath string `yaml:"fixture_path"`
}

type FinnhubConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
	Timeout           time.Duration `yaml:"timeout" default:"15s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" default:"1"`
	Freq              string        `yaml:"freq" default:"annual"`
}

type PipelineConfig struct {
	FetchDelay   time.Duration `yaml:"fetch_delay" default:"500ms"`
	OnFetchError string        `yaml:"on_fetch_error" default:"abort"`
	Schedule     string        `yaml:"schedule"`
	RunOnStart   bool          `yaml:"run_on_start" default:"true"`
	RunTimeout   time.Duration `yaml:"run_timeout" default:"10m"`
	Queue        QueueConfig   `yaml:"queue"`
}

// QueueConfig routes refresh requests through a Redis work queue shared by replicas.
type QueueConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Workers    int           `yaml:"workers" default:"1"`
	RetryLimit int           `yaml:"retry_limit"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"30s"`
}

type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	TTL           time.Duration `yaml:"ttl" default:"15m"`
	MemoryMaxSize int           `yaml:"memory_max_size" default:"1000"`
	Redis         RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"finratio"`
}

type APIConfig struct {
	TickerCacheTTL time.Duration `yaml:"ticker_cache_ttl" default:"5m"`
	RateCapacity   float64       `yaml:"rate_capacity" default:"5"`
	RateRefill     float64       `yaml:"rate_refill_per_sec" default:"0.5"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"finratio"`
	Table            string        `yaml:"table" default:"ratio_records"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic" default:"finratio.ratios"`
	LogTopic     string   `yaml:"log_topic"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"gzip"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"1s"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
}

// Default returns a configuration with every default applied and the stock ticker list.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.Tickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}
	return &c, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.normalize()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyEnv()
	c.normalize()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.Tickers = util.SplitList(v)
	}
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

// normalize trims and upper-cases tickers and drops blanks and duplicates, keeping order.
func (c *Config) normalize() {
	seen := make(map[string]bool, len(c.Tickers))
	out := c.Tickers[:0]
	for _, t := range c.Tickers {
		t = util.NormalizeSymbol(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	c.Tickers = out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Tickers) == 0 {
		return fmt.Errorf("tickers cannot be empty")
	}
	switch c.Provider.Type {
	case "finnhub":
		if c.Finnhub.APIKey == "" {
			return fmt.Errorf("finnhub.api_key is required")
		}
		if c.Finnhub.RequestsPerSecond <= 0 {
			return fmt.Errorf("finnhub.requests_per_second must be positive")
		}
	case "fixture":
		if c.Provider.FixturePath == "" {
			return fmt.Errorf("provider.fixture_path is required for the fixture provider")
		}
	default:
		return fmt.Errorf("provider.type must be 'finnhub' or 'fixture', got '%s'", c.Provider.Type)
	}
	if c.Pipeline.FetchDelay < 0 {
		return fmt.Errorf("pipeline.fetch_delay cannot be negative")
	}
	if c.Pipeline.OnFetchError != "abort" && c.Pipeline.OnFetchError != "skip" {
		return fmt.Errorf("pipeline.on_fetch_error must be 'abort' or 'skip', got '%s'", c.Pipeline.OnFetchError)
	}
	if c.Assumptions.TaxRate < 0 || c.Assumptions.TaxRate >= 1 {
		return fmt.Errorf("assumptions.tax_rate must be in [0, 1), got %v", c.Assumptions.TaxRate)
	}
	if c.Pipeline.Queue.Enabled && !c.Cache.Redis.Enabled {
		return fmt.Errorf("pipeline.queue requires cache.redis.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
