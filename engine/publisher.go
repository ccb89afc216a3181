package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"exec-engine-go/ledger"
)

// DefaultFillBuffer 输出通道默认容量。
const DefaultFillBuffer = 10000

// DefaultPublishTimeout 通道满时生产者最多阻塞的时长，超过即丢弃并计数。
const DefaultPublishTimeout = 50 * time.Millisecond

// FillPublisher 把成交记录推入有界通道供下游消费。
// 溢出策略：先阻塞 timeout，仍满则丢弃并计数，保证 tick 摄入不会被
// 消费端无限期拖住，丢弃量通过 Dropped 与 Prometheus 计数器可观测。
type FillPublisher struct {
	ch      chan ledger.Fill
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	dropCtr prometheus.Counter
}

// NewFillPublisher 创建发布器；dropCtr 可为 nil。
func NewFillPublisher(capacity int, timeout time.Duration, dropCtr prometheus.Counter) *FillPublisher {
	if capacity <= 0 {
		capacity = DefaultFillBuffer
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &FillPublisher{
		ch:      make(chan ledger.Fill, capacity),
		timeout: timeout,
		dropCtr: dropCtr,
	}
}

// Publish 推送一条成交；返回是否入队成功。
// 关闭后的调用按丢弃处理。
func (p *FillPublisher) Publish(fill ledger.Fill) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop()
		return false
	}

	select {
	case p.ch <- fill:
		return true
	default:
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case p.ch <- fill:
		return true
	case <-timer.C:
		p.drop()
		return false
	}
}

// Fills 返回消费端通道；Close 后通道被关闭。
func (p *FillPublisher) Fills() <-chan ledger.Fill {
	return p.ch
}

// Dropped 返回累计丢弃数量。
func (p *FillPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close 幂等关闭；已入队的成交仍可被消费端读完。
func (p *FillPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.ch)
}

func (p *FillPublisher) drop() {
	p.dropped.Add(1)
	if p.dropCtr != nil {
		p.dropCtr.Inc()
	}
}
