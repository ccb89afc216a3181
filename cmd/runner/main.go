package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"exec-engine-go/config"
	"exec-engine-go/engine"
	"exec-engine-go/feed"
	"exec-engine-go/infrastructure/logger"
	"exec-engine-go/ledger"
	"exec-engine-go/market"
	"exec-engine-go/metrics"
	"exec-engine-go/risk"
	"exec-engine-go/signal/meanrev"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	initialEquity := flag.Float64("equity", 100000, "初始权益，用于停机时的回撤报告")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Close()

	collector := metrics.NewCollector(nil)
	metrics.StartMetricsServer(cfg.MetricsAddr)

	gate, err := risk.NewGate(cfg.Risk)
	if err != nil {
		lg.Fatal("Invalid risk limits", zap.Error(err))
	}

	book := ledger.New()
	strat := meanrev.New(meanrev.Config{
		Lookback: cfg.Strategy.Lookback,
		BandK:    cfg.Strategy.BandK,
		ClipSize: cfg.Strategy.ClipSize,
	})

	coord, err := engine.New(engine.Config{
		SignalTimeout:  time.Duration(cfg.Engine.SignalTimeoutMs) * time.Millisecond,
		FillBuffer:     cfg.Engine.FillBuffer,
		PublishTimeout: time.Duration(cfg.Engine.PublishTimeoutMs) * time.Millisecond,
	}, engine.Components{
		Source:  strat,
		Guard:   gate,
		Ledger:  book,
		Logger:  lg,
		Metrics: collector,
		IDs:     engine.RandomID{},
	})
	if err != nil {
		lg.Fatal("Init coordinator", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 配置重载只作用于运维面，风控限额在协调器生命周期内固定
	reloader, err := config.NewReloader(*cfgPath, 0, func(updated config.AppConfig) {
		lg.Info("Config reloaded",
			zap.String("feed_url", updated.Feed.URL),
			zap.Strings("symbols", updated.Feed.Symbols),
			zap.String("log_level", updated.Logger.Level))
	})
	if err != nil {
		lg.Warn("Config reloader unavailable", zap.Error(err))
	} else if err := reloader.Start(ctx); err != nil {
		lg.Warn("Config reloader start failed", zap.Error(err))
	} else {
		defer func() { _ = reloader.Stop() }()
	}

	// 成交消费：落日志并累计已实现盈亏
	var (
		pnlMu       sync.Mutex
		realizedPnL float64
		peakPnL     float64
		drainDone   = make(chan struct{})
	)
	go func() {
		defer close(drainDone)
		for fill := range coord.Fills() {
			pnlMu.Lock()
			realizedPnL += fill.RealizedPnL
			if realizedPnL > peakPnL {
				peakPnL = realizedPnL
			}
			pnlMu.Unlock()
		}
	}()

	feedClient := &feed.Client{
		URL:     cfg.Feed.URL,
		Token:   cfg.Feed.Token,
		Venue:   cfg.Feed.Venue,
		Symbols: cfg.Feed.Symbols,
		Logger:  lg,
	}
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		err := feedClient.Run(ctx, func(tick market.Tick) {
			coord.ProcessTick(ctx, tick)
		})
		if err != nil && ctx.Err() == nil {
			lg.Error("Feed terminated", zap.Error(err))
			cancel()
		}
	}()

	lg.Info("Runner started",
		zap.String("env", cfg.Env),
		zap.Float64("max_position", cfg.Risk.MaxPosition),
		zap.String("feed_url", cfg.Feed.URL))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigCh:
		lg.Info("Shutdown signal received", zap.String("signal", s.String()))
		cancel()
	case <-ctx.Done():
	}

	// 停止喂入后关闭输出流，消费端读完剩余成交
	<-feedDone
	coord.Close()
	<-drainDone

	pnlMu.Lock()
	finalPnL, peak := realizedPnL, peakPnL
	pnlMu.Unlock()

	ticks, signals, fills, rejects, failures := coord.GetStatistics()
	lg.Info("Runner stopped",
		zap.Int64("ticks", ticks),
		zap.Int64("signals", signals),
		zap.Int64("fills", fills),
		zap.Int64("risk_rejects", rejects),
		zap.Int64("signal_failures", failures),
		zap.Uint64("fills_dropped", coord.DroppedFills()),
		zap.Float64("realized_pnl", finalPnL),
		zap.Any("positions", book.Positions()),
		zap.Bool("drawdown_breached",
			gate.DrawdownBreached(*initialEquity+finalPnL, *initialEquity+peak)))
}
