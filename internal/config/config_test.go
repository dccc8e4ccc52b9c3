package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/notifyhub/wishlist-watcher/internal/config"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := config.Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/wishlist")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TickInterval != 5*time.Second {
		t.Errorf("tick = %s", cfg.TickInterval)
	}
	if cfg.VIPPollInterval != 30*time.Second || cfg.HighPollInterval != 60*time.Second || cfg.NormalPollInterval != 60*time.Second {
		t.Errorf("poll intervals = %s/%s/%s", cfg.VIPPollInterval, cfg.HighPollInterval, cfg.NormalPollInterval)
	}
	if cfg.LockStaleAfter != 60*time.Second || cfg.LockHeartbeatInterval != 20*time.Second || cfg.LockRetryInterval != 30*time.Second {
		t.Errorf("lock timings = %s/%s/%s", cfg.LockStaleAfter, cfg.LockHeartbeatInterval, cfg.LockRetryInterval)
	}
	if cfg.ActiveStartHour != 4 || cfg.ActiveEndHour != 1 {
		t.Errorf("active window = %d..%d", cfg.ActiveStartHour, cfg.ActiveEndHour)
	}
	if len(cfg.RateLimitBackoff) != 2 || cfg.RateLimitBackoff[0] != 10*time.Second || cfg.RateLimitBackoff[1] != 20*time.Second {
		t.Errorf("backoff = %v", cfg.RateLimitBackoff)
	}
	if cfg.LockBackend != config.LockBackendPostgres || cfg.Sink != config.SinkWebhook {
		t.Errorf("backend/sink = %s/%s", cfg.LockBackend, cfg.Sink)
	}
	if cfg.InstanceID == "" {
		t.Error("expected a generated instance id")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/wishlist")
	t.Setenv("POLL_INTERVAL_SECONDS", "90")
	t.Setenv("INSTANCE_ID", "worker-1")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("NORMAL_PAUSE_MIN", "2s")
	t.Setenv("NORMAL_PAUSE_MAX", "4s")
	t.Setenv("TICK_INTERVAL", "not-a-duration")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NormalPollInterval != 90*time.Second {
		t.Errorf("normal interval = %s", cfg.NormalPollInterval)
	}
	if cfg.InstanceID != "worker-1" || cfg.LockBackend != "redis" {
		t.Errorf("instance/backend = %s/%s", cfg.InstanceID, cfg.LockBackend)
	}
	if cfg.NormalPauseMin != 2*time.Second || cfg.NormalPauseMax != 4*time.Second {
		t.Errorf("normal pause = %s..%s", cfg.NormalPauseMin, cfg.NormalPauseMax)
	}
	// Unparseable values fall back to the default.
	if cfg.TickInterval != 5*time.Second {
		t.Errorf("tick = %s", cfg.TickInterval)
	}
}

func validConfig() config.Config {
	return config.Config{
		InstanceID:            "a",
		LockBackend:           config.LockBackendPostgres,
		LockStaleAfter:        60 * time.Second,
		LockHeartbeatInterval: 20 * time.Second,
		LockRetryInterval:     30 * time.Second,
		TickInterval:          5 * time.Second,
		VIPPollInterval:       30 * time.Second,
		HighPollInterval:      60 * time.Second,
		NormalPollInterval:    60 * time.Second,
		ActiveStartHour:       4,
		ActiveEndHour:         1,
		NormalPauseMin:        10 * time.Second,
		NormalPauseMax:        15 * time.Second,
		Sink:                  config.SinkWebhook,
		WebhookURL:            "http://localhost/notify",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"zero tick", func(c *config.Config) { c.TickInterval = 0 }, "TICK_INTERVAL"},
		{"heartbeat not below stale", func(c *config.Config) { c.LockHeartbeatInterval = 60 * time.Second }, "LOCK_HEARTBEAT_INTERVAL"},
		{"pause range inverted", func(c *config.Config) { c.NormalPauseMin = 20 * time.Second }, "NORMAL_PAUSE_MIN"},
		{"hour out of range", func(c *config.Config) { c.ActiveEndHour = 24 }, "ACTIVE_END_HOUR"},
		{"unknown backend", func(c *config.Config) { c.LockBackend = "etcd" }, "LOCK_BACKEND"},
		{"unknown sink", func(c *config.Config) { c.Sink = "smtp" }, "SINK"},
		{"telegram without token", func(c *config.Config) { c.Sink = config.SinkTelegram }, "TELEGRAM_BOT_TOKEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tc.wantErr, err)
			}
		})
	}
}
