package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	LockBackendPostgres = "postgres"
	LockBackendRedis    = "redis"

	SinkWebhook  = "webhook"
	SinkTelegram = "telegram"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Scheduler lock
	InstanceID            string
	LockBackend           string
	RedisAddress          string
	RedisPassword         string
	RedisDB               int
	LockStaleAfter        time.Duration
	LockHeartbeatInterval time.Duration
	LockRetryInterval     time.Duration

	// Scheduling. NormalPollInterval is the operator knob for the default tier.
	TickInterval       time.Duration
	VIPPollInterval    time.Duration
	HighPollInterval   time.Duration
	NormalPollInterval time.Duration
	ActiveStartHour    int
	ActiveEndHour      int

	// Pacing between checks, by tier of the entry just processed
	VIPPause       time.Duration
	HighPause      time.Duration
	NormalPauseMin time.Duration
	NormalPauseMax time.Duration

	// Wait before each extra fetch attempt after a rate-limit response
	RateLimitBackoff []time.Duration

	// Catalog source
	CatalogBaseURL           string
	CatalogTimeout           time.Duration
	CatalogRequestsPerMinute int
	StreamerURLTemplate      string

	// Delivery
	Sink              string
	WebhookURL        string
	WebhookTimeout    time.Duration
	TelegramBotToken  string
	DeliveryRateLimit int
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 2)),

		InstanceID:            getEnv("INSTANCE_ID", defaultInstanceID()),
		LockBackend:           getEnv("LOCK_BACKEND", LockBackendPostgres),
		RedisAddress:          getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getInt("REDIS_DB", 0),
		LockStaleAfter:        getDuration("LOCK_STALE_AFTER", 60*time.Second),
		LockHeartbeatInterval: getDuration("LOCK_HEARTBEAT_INTERVAL", 20*time.Second),
		LockRetryInterval:     getDuration("LOCK_RETRY_INTERVAL", 30*time.Second),

		TickInterval:       getDuration("TICK_INTERVAL", 5*time.Second),
		VIPPollInterval:    getDuration("VIP_POLL_INTERVAL", 30*time.Second),
		HighPollInterval:   getDuration("HIGH_POLL_INTERVAL", 60*time.Second),
		NormalPollInterval: time.Duration(getInt("POLL_INTERVAL_SECONDS", 60)) * time.Second,
		ActiveStartHour:    getInt("ACTIVE_START_HOUR", 4),
		ActiveEndHour:      getInt("ACTIVE_END_HOUR", 1),

		VIPPause:       getDuration("VIP_PAUSE", 3*time.Second),
		HighPause:      getDuration("HIGH_PAUSE", 5*time.Second),
		NormalPauseMin: getDuration("NORMAL_PAUSE_MIN", 10*time.Second),
		NormalPauseMax: getDuration("NORMAL_PAUSE_MAX", 15*time.Second),

		RateLimitBackoff: []time.Duration{
			getDuration("RATE_LIMIT_BACKOFF_1", 10*time.Second),
			getDuration("RATE_LIMIT_BACKOFF_2", 20*time.Second),
		},

		CatalogBaseURL:           getEnv("CATALOG_BASE_URL", "http://localhost:8090"),
		CatalogTimeout:           getDuration("CATALOG_TIMEOUT", 20*time.Second),
		CatalogRequestsPerMinute: getInt("CATALOG_REQUESTS_PER_MINUTE", 30),
		StreamerURLTemplate:      getEnv("STREAMER_URL_TEMPLATE", "https://throne.com/%s"),

		Sink:              getEnv("SINK", SinkWebhook),
		WebhookURL:        getEnv("WEBHOOK_URL", "http://localhost:8091/notify"),
		WebhookTimeout:    getDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		DeliveryRateLimit: getInt("DELIVERY_RATE_LIMIT", 25),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	positive := map[string]time.Duration{
		"TICK_INTERVAL":           c.TickInterval,
		"VIP_POLL_INTERVAL":       c.VIPPollInterval,
		"HIGH_POLL_INTERVAL":      c.HighPollInterval,
		"POLL_INTERVAL_SECONDS":   c.NormalPollInterval,
		"LOCK_STALE_AFTER":        c.LockStaleAfter,
		"LOCK_HEARTBEAT_INTERVAL": c.LockHeartbeatInterval,
		"LOCK_RETRY_INTERVAL":     c.LockRetryInterval,
	}
	for name, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	if c.LockHeartbeatInterval >= c.LockStaleAfter {
		errs = append(errs, fmt.Errorf("LOCK_HEARTBEAT_INTERVAL (%s) must be shorter than LOCK_STALE_AFTER (%s)",
			c.LockHeartbeatInterval, c.LockStaleAfter))
	}
	if c.NormalPauseMin > c.NormalPauseMax {
		errs = append(errs, fmt.Errorf("NORMAL_PAUSE_MIN (%s) exceeds NORMAL_PAUSE_MAX (%s)",
			c.NormalPauseMin, c.NormalPauseMax))
	}
	for name, h := range map[string]int{"ACTIVE_START_HOUR": c.ActiveStartHour, "ACTIVE_END_HOUR": c.ActiveEndHour} {
		if h < 0 || h > 23 {
			errs = append(errs, fmt.Errorf("%s must be within 0..23, got %d", name, h))
		}
	}

	switch c.LockBackend {
	case LockBackendPostgres, LockBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown LOCK_BACKEND %q", c.LockBackend))
	}

	switch c.Sink {
	case SinkWebhook:
		if c.WebhookURL == "" {
			errs = append(errs, errors.New("WEBHOOK_URL is required for the webhook sink"))
		}
	case SinkTelegram:
		if c.TelegramBotToken == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required for the telegram sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SINK %q", c.Sink))
	}

	return errors.Join(errs...)
}

func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "instance"
	}
	return host + "-" + uuid.NewString()[:8]
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
