package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration, loaded from YAML with
// environment overrides for deployment secrets.
type Config struct {
	Database struct {
		DSN                 string `yaml:"dsn"`
		QueryTimeoutSeconds int    `yaml:"query_timeout_seconds"`
	} `yaml:"database"`

	Redis struct {
		Addr       string `yaml:"addr"`
		DB         int    `yaml:"db"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"redis"`

	HTTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"http"`

	Orchestrator struct {
		URL                string `yaml:"url"`
		TimeoutSeconds     int    `yaml:"timeout_seconds"`
		MinIntervalSeconds int    `yaml:"min_interval_seconds"`
	} `yaml:"orchestrator"`

	Monitor struct {
		IntervalSeconds int      `yaml:"interval_seconds"`
		MaxRuns         int      `yaml:"max_runs"`
		Tenors          []string `yaml:"tenors"`
		Currency        string   `yaml:"currency"`
	} `yaml:"monitor"`

	Thresholds struct {
		Volatility float64 `yaml:"volatility"`
	} `yaml:"thresholds"`

	Logs struct {
		Dir       string   `yaml:"dir"`
		Artifacts []string `yaml:"artifacts"`
	} `yaml:"logs"`
}

// LoadConfig reads the YAML config at path, applies defaults, and overlays
// environment variables (PG_DSN, REDIS_ADDR, ORCHESTRATOR_URL).
func LoadConfig(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	c.applyDefaults()
	c.applyEnv()

	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Database.QueryTimeoutSeconds == 0 {
		c.Database.QueryTimeoutSeconds = 30
	}
	if c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = 10
	}
	if c.HTTP.Host == "" {
		c.HTTP.Host = "0.0.0.0"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 7860
	}
	if c.Orchestrator.TimeoutSeconds == 0 {
		c.Orchestrator.TimeoutSeconds = 300
	}
	if c.Monitor.IntervalSeconds == 0 {
		c.Monitor.IntervalSeconds = 60
	}
	if c.Monitor.MaxRuns == 0 {
		c.Monitor.MaxRuns = 5
	}
	if len(c.Monitor.Tenors) == 0 {
		c.Monitor.Tenors = []string{"2Y", "5Y", "10Y", "30Y"}
	}
	if c.Monitor.Currency == "" {
		c.Monitor.Currency = "USD"
	}
	if c.Thresholds.Volatility == 0 {
		c.Thresholds.Volatility = 0.02
	}
	if c.Logs.Dir == "" {
		c.Logs.Dir = "logs"
	}
	if len(c.Logs.Artifacts) == 0 {
		c.Logs.Artifacts = []string{
			"market_data_output.txt",
			"positions_output.txt",
			"thresholds_output.txt",
			"risk_calculation_output.txt",
			"trading_decisions_output.txt",
		}
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PG_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("ORCHESTRATOR_URL"); v != "" {
		c.Orchestrator.URL = v
	}
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalSeconds) * time.Second
}

func (c *Config) OrchestratorTimeout() time.Duration {
	return time.Duration(c.Orchestrator.TimeoutSeconds) * time.Second
}

func (c *Config) OrchestratorMinInterval() time.Duration {
	return time.Duration(c.Orchestrator.MinIntervalSeconds) * time.Second
}
