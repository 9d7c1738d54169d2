package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/eventops/backoffice-api/pkg/messaging/redis"
	"github.com/eventops/backoffice-api/pkg/worker"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
}

type OutboxConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// NotifierConfig tunes the notification pipeline and the worker loops
// that drive it.
type NotifierConfig struct {
	// BaseURL prefixes rendered deep links.
	BaseURL string `yaml:"base_url"`

	// Timezone anchors quiet-window arithmetic.
	Timezone string `yaml:"timezone"`

	// ScanHorizonDays bounds how far ahead event scans look.
	ScanHorizonDays int `yaml:"scan_horizon_days"`

	ScanInterval     time.Duration `yaml:"scan_interval"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	GCInterval       time.Duration `yaml:"gc_interval"`
	DigestRecipients []string      `yaml:"digest_recipients"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Container deployments override the DB target through the environment.
	if host := os.Getenv("DB_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		config.Database.Port, _ = strconv.Atoi(port)
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		config.Redis.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.JWT.Secret = secret
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.PollInterval == 0 {
		c.Outbox.PollInterval = 5 * time.Second
	}
	if c.Outbox.RetryAttempts == 0 {
		c.Outbox.RetryAttempts = 3
	}
	if c.Outbox.RetryDelay == 0 {
		c.Outbox.RetryDelay = time.Second
	}
	if c.Notifier.Timezone == "" {
		c.Notifier.Timezone = "Asia/Jerusalem"
	}
	if c.Notifier.ScanHorizonDays == 0 {
		c.Notifier.ScanHorizonDays = 30
	}
	if c.Notifier.ScanInterval == 0 {
		c.Notifier.ScanInterval = time.Hour
	}
	if c.Notifier.SweepInterval == 0 {
		c.Notifier.SweepInterval = 5 * time.Minute
	}
	if c.Notifier.GCInterval == 0 {
		c.Notifier.GCInterval = 24 * time.Hour
	}
	if c.JWT.ExpiryHours == 0 {
		c.JWT.ExpiryHours = 24
	}
}

// ScanHorizon returns the horizon as a duration.
func (c *NotifierConfig) ScanHorizon() time.Duration {
	return time.Duration(c.ScanHorizonDays) * 24 * time.Hour
}

func (c *OutboxConfig) ToWorkerConfig(channel string) worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		Channel:       channel,
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
