package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
env: test
engine:
  signalTimeoutMs: 100
  fillBuffer: 10000
  publishTimeoutMs: 50
risk:
  maxPosition: 1000
  maxDrawdownFrac: 0.05
strategy:
  lookback: 20
  bandK: 2
  clipSize: 100
feed:
  url: wss://example.com/ticks
  venue: sim
  symbols: [BTCUSDT, ETHUSDT]
logger:
  level: info
  format: json
metricsAddr: ":9100"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if cfg.Env != "test" {
		t.Fatalf("unexpected env %q", cfg.Env)
	}
	if cfg.Risk.MaxPosition != 1000 {
		t.Fatalf("unexpected maxPosition %f", cfg.Risk.MaxPosition)
	}
	if len(cfg.Feed.Symbols) != 2 {
		t.Fatalf("unexpected symbols %v", cfg.Feed.Symbols)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"missing env", `
risk: {maxPosition: 1000, maxDrawdownFrac: 0.05}
`},
		{"bad maxPosition", `
env: test
risk: {maxPosition: 0, maxDrawdownFrac: 0.05}
`},
		{"bad drawdown", `
env: test
risk: {maxPosition: 1000, maxDrawdownFrac: 1.5}
`},
		{"feed url without symbols", `
env: test
risk: {maxPosition: 1000, maxDrawdownFrac: 0.05}
feed: {url: wss://example.com}
`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, tc.yaml)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("EXEC_FEED_URL", "wss://override.example.com/ticks")
	t.Setenv("EXEC_FEED_TOKEN", "secret")

	cfg, err := LoadWithEnvOverrides(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if cfg.Feed.URL != "wss://override.example.com/ticks" {
		t.Fatalf("env override not applied: %q", cfg.Feed.URL)
	}
	if cfg.Feed.Token != "secret" {
		t.Fatalf("token override not applied")
	}
}
