package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("defaults should parse: %v", err)
	}
	if cfg.ServerURL != "http://127.0.0.1:8000" {
		t.Fatalf("unexpected default server url %q", cfg.ServerURL)
	}
	if cfg.ReconnectMin != 500*time.Millisecond {
		t.Fatalf("unexpected reconnect floor %s", cfg.ReconnectMin)
	}
	if cfg.ReconnectMax != 8*time.Second {
		t.Fatalf("unexpected reconnect ceiling %s", cfg.ReconnectMax)
	}
	if cfg.CatchupWindow != 2000 {
		t.Fatalf("unexpected catch-up window %d", cfg.CatchupWindow)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("RHODES_SERVER_URL", "http://game.internal:9000")
	t.Setenv("RHODES_RECONNECT_MIN", "250ms")
	t.Setenv("RHODES_RECONNECT_MAX", "4s")
	t.Setenv("RHODES_LOG_SINKS", "console,json")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("overrides should parse: %v", err)
	}
	if cfg.ServerURL != "http://game.internal:9000" {
		t.Fatalf("server url override ignored: %q", cfg.ServerURL)
	}
	if cfg.ReconnectMin != 250*time.Millisecond || cfg.ReconnectMax != 4*time.Second {
		t.Fatalf("reconnect overrides ignored: %s/%s", cfg.ReconnectMin, cfg.ReconnectMax)
	}
	if len(cfg.LogSinks) != 2 || cfg.LogSinks[0] != "console" || cfg.LogSinks[1] != "json" {
		t.Fatalf("log sinks override ignored: %v", cfg.LogSinks)
	}
}

func TestFromEnvRejectsInvertedBackoffBounds(t *testing.T) {
	t.Setenv("RHODES_RECONNECT_MIN", "10s")
	t.Setenv("RHODES_RECONNECT_MAX", "1s")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected ceiling below floor to be rejected")
	}
}
