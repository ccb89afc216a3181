package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"exec-engine-go/infrastructure/logger"
	"exec-engine-go/risk"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string         `yaml:"env"`
	Engine      EngineConfig   `yaml:"engine"`
	Risk        risk.Limits    `yaml:"risk"`
	Strategy    StrategyConfig `yaml:"strategy"`
	Feed        FeedConfig     `yaml:"feed"`
	Logger      logger.Config  `yaml:"logger"`
	MetricsAddr string         `yaml:"metricsAddr"`
}

// EngineConfig 协调器参数。
type EngineConfig struct {
	SignalTimeoutMs  int `yaml:"signalTimeoutMs"`  // 策略调用时间预算（毫秒）
	FillBuffer       int `yaml:"fillBuffer"`       // 成交输出通道容量
	PublishTimeoutMs int `yaml:"publishTimeoutMs"` // 通道满时的阻塞上限（毫秒）
}

// StrategyConfig 进程内参考策略参数。
type StrategyConfig struct {
	Lookback int     `yaml:"lookback"`
	BandK    float64 `yaml:"bandK"`
	ClipSize float64 `yaml:"clipSize"`
}

// FeedConfig 行情接入参数。
type FeedConfig struct {
	URL     string   `yaml:"url"`
	Token   string   `yaml:"token"`
	Venue   string   `yaml:"venue"`
	Symbols []string `yaml:"symbols"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("EXEC_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("EXEC_FEED_TOKEN"); v != "" {
		cfg.Feed.Token = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if err := cfg.Risk.Validate(); err != nil {
		return err
	}
	if cfg.Engine.SignalTimeoutMs < 0 {
		return errors.New("engine.signalTimeoutMs must be >= 0")
	}
	if cfg.Engine.FillBuffer < 0 {
		return errors.New("engine.fillBuffer must be >= 0")
	}
	if cfg.Engine.PublishTimeoutMs < 0 {
		return errors.New("engine.publishTimeoutMs must be >= 0")
	}
	if cfg.Strategy.Lookback < 0 {
		return errors.New("strategy.lookback must be >= 0")
	}
	if cfg.Strategy.ClipSize < 0 {
		return errors.New("strategy.clipSize must be >= 0")
	}
	if cfg.Feed.URL != "" && len(cfg.Feed.Symbols) == 0 {
		return errors.New("feed.symbols is required when feed.url is set")
	}
	return nil
}
