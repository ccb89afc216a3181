package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"exec-engine-go/infrastructure/logger"
	"exec-engine-go/ledger"
	"exec-engine-go/market"
	"exec-engine-go/metrics"
	"exec-engine-go/risk"
	"exec-engine-go/signal"
)

// TickState 单个 tick 在流水线中的终态。
type TickState int

const (
	// StateNoSignal 策略无操作（含超时/异常载荷）
	StateNoSignal TickState = iota
	// StateRejected 风控拒绝，无账本变更
	StateRejected
	// StateApplied 已落账并发布成交
	StateApplied
)

// String 返回状态名称
func (s TickState) String() string {
	switch s {
	case StateNoSignal:
		return "NO_SIGNAL"
	case StateRejected:
		return "REJECTED"
	case StateApplied:
		return "APPLIED"
	default:
		return "UNKNOWN"
	}
}

// Config 协调器配置
type Config struct {
	SignalTimeout  time.Duration // 策略调用时间预算
	FillBuffer     int           // 成交输出通道容量
	PublishTimeout time.Duration // 通道满时的阻塞上限
}

// Components 协调器依赖组件
type Components struct {
	Source  signal.Source
	Guard   risk.Guard
	Ledger  *ledger.Ledger
	Logger  *logger.Logger
	Metrics *metrics.Collector
	IDs     IDGen
}

// Coordinator 执行协调器：tick → 策略 → 风控 → 账本 → 成交流。
// 风控检查与落账在账本的同一个排他临界区内完成，
// 并发 tick 不可能联合突破 MaxPosition。
type Coordinator struct {
	config    Config
	source    signal.Source
	guard     risk.Guard
	ledger    *ledger.Ledger
	logger    *logger.Logger
	collector *metrics.Collector
	ids       IDGen
	publisher *FillPublisher

	stats Statistics
}

// Statistics 协调器统计信息
type Statistics struct {
	mu             sync.RWMutex
	TotalTicks     int64
	TotalSignals   int64
	TotalFills     int64
	TotalRejects   int64
	SignalFailures int64
	LastTickTime   time.Time
	LastFillTime   time.Time
}

// New 创建协调器
func New(cfg Config, comp Components) (*Coordinator, error) {
	if err := validateComponents(comp); err != nil {
		return nil, err
	}
	if cfg.SignalTimeout <= 0 {
		cfg.SignalTimeout = 100 * time.Millisecond
	}

	var dropCtr prometheus.Counter
	if comp.Metrics != nil {
		dropCtr = comp.Metrics.FillsDropped
	}
	pub := NewFillPublisher(cfg.FillBuffer, cfg.PublishTimeout, dropCtr)

	return &Coordinator{
		config:    cfg,
		source:    signal.TimeBoxed{Inner: comp.Source, Timeout: cfg.SignalTimeout},
		guard:     comp.Guard,
		ledger:    comp.Ledger,
		logger:    comp.Logger,
		collector: comp.Metrics,
		ids:       comp.IDs,
		publisher: pub,
	}, nil
}

// ProcessTick 处理一条行情事件；所有可恢复情况就地吸收，不向调用方冒泡。
func (c *Coordinator) ProcessTick(ctx context.Context, tick market.Tick) {
	if !tick.Valid() {
		c.logger.Debug("Dropping malformed tick",
			zap.String("symbol", tick.Symbol),
			zap.Float64("price", tick.Price))
		return
	}

	c.stats.mu.Lock()
	c.stats.TotalTicks++
	c.stats.LastTickTime = time.Now()
	c.stats.mu.Unlock()
	if c.collector != nil {
		c.collector.Ticks.Inc()
	}

	state := c.process(ctx, tick)
	c.logger.Debug("Tick processed",
		zap.String("symbol", tick.Symbol),
		zap.String("state", state.String()))
}

func (c *Coordinator) process(ctx context.Context, tick market.Tick) TickState {
	sig := c.requestSignal(ctx, tick)
	if sig == nil {
		return StateNoSignal
	}

	c.stats.mu.Lock()
	c.stats.TotalSignals++
	c.stats.mu.Unlock()
	if c.collector != nil {
		c.collector.Signals.Inc()
	}

	delta := sig.Side.Sign() * sig.Size

	// 检查与落账共用一个临界区，规避 check-then-act 竞争。
	tx := c.ledger.Locked()
	currentPos := tx.Position(tick.Symbol)
	if err := c.guard.PreTrade(tick.Symbol, delta, currentPos); err != nil {
		tx.Unlock()
		c.onRejected(tick, sig, currentPos, err)
		return StateRejected
	}
	fill := tx.Apply(c.ids.Next(), tick.Symbol, sig.Side, sig.Size, sig.Price)
	newPos := tx.Position(tick.Symbol)
	tx.Unlock()

	c.onApplied(fill, newPos)
	return StateApplied
}

// requestSignal 调用外部策略；超时、错误与异常载荷统一折叠为"无信号"。
func (c *Coordinator) requestSignal(ctx context.Context, tick market.Tick) *signal.TradeSignal {
	start := time.Now()
	sig, err := c.source.OnTick(ctx, tick)
	if c.collector != nil {
		c.collector.SignalLatency.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		c.stats.mu.Lock()
		c.stats.SignalFailures++
		c.stats.mu.Unlock()
		if c.collector != nil {
			c.collector.SignalTimeouts.Inc()
		}
		if errors.Is(err, signal.ErrTimeout) {
			c.logger.Warn("Signal source timed out, treating as no signal",
				zap.String("symbol", tick.Symbol),
				zap.Duration("budget", c.config.SignalTimeout))
		} else {
			c.logger.Warn("Signal source failed, treating as no signal",
				zap.String("symbol", tick.Symbol),
				zap.Error(err))
		}
		return nil
	}
	if sig == nil {
		return nil
	}
	if !sig.Valid() {
		// 异常载荷不是错误，丢弃即可
		c.logger.Debug("Malformed signal payload dropped",
			zap.String("symbol", tick.Symbol),
			zap.String("side", string(sig.Side)),
			zap.Float64("size", sig.Size))
		return nil
	}
	return sig
}

func (c *Coordinator) onRejected(tick market.Tick, sig *signal.TradeSignal, currentPos float64, err error) {
	c.stats.mu.Lock()
	c.stats.TotalRejects++
	c.stats.mu.Unlock()
	if c.collector != nil {
		c.collector.RiskRejects.Inc()
	}
	c.logger.LogRisk("pre_trade_reject", map[string]interface{}{
		"symbol":      tick.Symbol,
		"side":        string(sig.Side),
		"size":        sig.Size,
		"current_pos": currentPos,
		"reason":      err.Error(),
	})
}

func (c *Coordinator) onApplied(fill ledger.Fill, newPos float64) {
	c.stats.mu.Lock()
	c.stats.TotalFills++
	c.stats.LastFillTime = time.Now()
	c.stats.mu.Unlock()

	if c.collector != nil {
		c.collector.Fills.Inc()
		c.collector.Position.WithLabelValues(fill.Symbol).Set(newPos)
		c.collector.RealizedPnL.Add(fill.RealizedPnL)
	}

	c.logger.LogTrade("fill", map[string]interface{}{
		"fill_id":  fill.ID,
		"symbol":   fill.Symbol,
		"side":     string(fill.Side),
		"price":    fill.Price,
		"size":     fill.Size,
		"pnl":      fill.RealizedPnL,
		"position": newPos,
	})

	if !c.publisher.Publish(fill) {
		c.logger.Warn("Fill channel saturated, fill dropped",
			zap.String("fill_id", fill.ID),
			zap.Uint64("dropped_total", c.publisher.Dropped()))
	}
}

// Fills 返回成交输出流。
func (c *Coordinator) Fills() <-chan ledger.Fill {
	return c.publisher.Fills()
}

// Close 关闭成交输出流；在停止喂入 tick 之后调用。
func (c *Coordinator) Close() {
	c.publisher.Close()
}

// DroppedFills 返回因通道满被丢弃的成交数量。
func (c *Coordinator) DroppedFills() uint64 {
	return c.publisher.Dropped()
}

// GetStatistics 获取统计信息快照
func (c *Coordinator) GetStatistics() (ticks, signals, fills, rejects, failures int64) {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return c.stats.TotalTicks, c.stats.TotalSignals, c.stats.TotalFills,
		c.stats.TotalRejects, c.stats.SignalFailures
}

// validateComponents 验证组件
func validateComponents(comp Components) error {
	if comp.Source == nil {
		return errors.New("signal source is required")
	}
	if comp.Guard == nil {
		return errors.New("risk guard is required")
	}
	if comp.Ledger == nil {
		return errors.New("ledger is required")
	}
	if comp.Logger == nil {
		return errors.New("logger is required")
	}
	if comp.IDs == nil {
		return errors.New("id generator is required")
	}
	return nil
}
