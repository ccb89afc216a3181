// Package meanrev 提供进程内参考策略：布林带均值回归。
// 作为默认 SignalSource 接入，便于整条流水线在无外部策略时跑通。
package meanrev

import (
	"context"
	"math"
	"sync"

	"exec-engine-go/market"
	"exec-engine-go/signal"
)

// Config 策略参数。
type Config struct {
	Lookback int     // 滚动窗口长度
	BandK    float64 // 标准差倍数
	ClipSize float64 // 每次信号的固定数量
}

// DefaultConfig 返回默认参数，对齐常见的 20 周期 ±2σ 设置。
func DefaultConfig() Config {
	return Config{
		Lookback: 20,
		BandK:    2,
		ClipSize: 100,
	}
}

// Strategy 按交易对维护价格滚动窗口与自身持仓记忆。
// 价格跌破下轨且非多头时买入，突破上轨且非空头时卖出。
type Strategy struct {
	cfg Config

	mu        sync.Mutex
	history   map[string][]float64
	positions map[string]float64
}

func New(cfg Config) *Strategy {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 20
	}
	if cfg.BandK <= 0 {
		cfg.BandK = 2
	}
	if cfg.ClipSize <= 0 {
		cfg.ClipSize = 100
	}
	return &Strategy{
		cfg:       cfg,
		history:   make(map[string][]float64),
		positions: make(map[string]float64),
	}
}

// OnTick 实现 signal.Source。窗口未满时不产生信号。
func (s *Strategy) OnTick(_ context.Context, tick market.Tick) (*signal.TradeSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prices := append(s.history[tick.Symbol], tick.Price)
	if len(prices) > s.cfg.Lookback {
		prices = prices[len(prices)-s.cfg.Lookback:]
	}
	s.history[tick.Symbol] = prices

	if len(prices) < s.cfg.Lookback {
		return nil, nil
	}

	sma, std := meanStd(prices)
	if std == 0 {
		return nil, nil
	}
	upper := sma + s.cfg.BandK*std
	lower := sma - s.cfg.BandK*std

	pos := s.positions[tick.Symbol]
	switch {
	case tick.Price < lower && pos <= 0:
		s.positions[tick.Symbol] = pos + s.cfg.ClipSize
		return &signal.TradeSignal{Side: market.Buy, Size: s.cfg.ClipSize, Price: tick.Price}, nil
	case tick.Price > upper && pos >= 0:
		s.positions[tick.Symbol] = pos - s.cfg.ClipSize
		return &signal.TradeSignal{Side: market.Sell, Size: s.cfg.ClipSize, Price: tick.Price}, nil
	}
	return nil, nil
}

func meanStd(prices []float64) (mean, std float64) {
	for _, p := range prices {
		mean += p
	}
	mean /= float64(len(prices))

	var variance float64
	for _, p := range prices {
		diff := p - mean
		variance += diff * diff
	}
	variance /= float64(len(prices))
	return mean, math.Sqrt(variance)
}
