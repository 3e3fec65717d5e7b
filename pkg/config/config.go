package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Logging     struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		ObservationTopic string   `yaml:"observation_topic"`
		TradeEventTopic  string   `yaml:"trade_event_topic"`
		RequiredAcks     int      `yaml:"required_acks"`
		Compression      string   `yaml:"compression"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Engine struct {
		CycleInterval     time.Duration `yaml:"cycle_interval"`      // prediction cycle cadence
		LookbackHours     int           `yaml:"lookback_hours"`      // history window per asset
		ActiveWindow      time.Duration `yaml:"active_window"`       // asset considered active if seen within
		MinHistoryPoints  int           `yaml:"min_history_points"`  // skip asset below this
		HorizonMinutes    int           `yaml:"horizon_minutes"`     // RA-EV integration horizon
		RiskAversion      float64       `yaml:"risk_aversion"`       // lambda in RA-EV
		MinConfidence     float64       `yaml:"min_confidence"`      // paper-trade entry gate
		MinRAEV           float64       `yaml:"min_ra_ev"`           // paper-trade entry gate
		MaxHoldingMinutes int           `yaml:"max_holding_minutes"` // forced exit
		CapitalBase       float64       `yaml:"capital_base"`        // simulated position size in USD
	} `yaml:"engine"`
	Maintenance struct {
		SurvivalInterval time.Duration `yaml:"survival_interval"` // survival-curve retrain cadence
		CurveMinutes     int           `yaml:"curve_minutes"`     // curve length per tier
		MinTierSamples   int           `yaml:"min_tier_samples"`  // closed trades needed for KM fit
	} `yaml:"maintenance"`
	API struct {
		CacheTTL              time.Duration `yaml:"cache_ttl"`
		DefaultLimit          int           `yaml:"default_limit"`
		PerformanceWindowDays int           `yaml:"performance_window_days"`
	} `yaml:"api"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Engine.CycleInterval <= 0 {
		c.Engine.CycleInterval = 120 * time.Second
	}
	if c.Engine.LookbackHours <= 0 {
		c.Engine.LookbackHours = 24
	}
	if c.Engine.ActiveWindow <= 0 {
		c.Engine.ActiveWindow = 10 * time.Minute
	}
	if c.Engine.MinHistoryPoints <= 0 {
		c.Engine.MinHistoryPoints = 20
	}
	if c.Engine.HorizonMinutes <= 0 {
		c.Engine.HorizonMinutes = 60
	}
	if c.Engine.RiskAversion <= 0 {
		c.Engine.RiskAversion = 0.5
	}
	if c.Engine.MinConfidence <= 0 {
		c.Engine.MinConfidence = 0.8
	}
	if c.Engine.MaxHoldingMinutes <= 0 {
		c.Engine.MaxHoldingMinutes = 1440
	}
	if c.Engine.CapitalBase <= 0 {
		c.Engine.CapitalBase = 1000
	}
	if c.Maintenance.SurvivalInterval <= 0 {
		c.Maintenance.SurvivalInterval = 24 * time.Hour
	}
	if c.Maintenance.CurveMinutes <= 0 {
		c.Maintenance.CurveMinutes = 60
	}
	if c.Maintenance.MinTierSamples <= 0 {
		c.Maintenance.MinTierSamples = 30
	}
	if c.API.CacheTTL <= 0 {
		c.API.CacheTTL = 30 * time.Second
	}
	if c.API.DefaultLimit <= 0 {
		c.API.DefaultLimit = 100
	}
	if c.API.PerformanceWindowDays <= 0 {
		c.API.PerformanceWindowDays = 30
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse.database is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Kafka.ObservationTopic == "" {
		return fmt.Errorf("kafka.observation_topic is required")
	}
	if c.Engine.MinConfidence > 1 {
		return fmt.Errorf("engine.min_confidence must be <= 1, got %v", c.Engine.MinConfidence)
	}
	return nil
}
