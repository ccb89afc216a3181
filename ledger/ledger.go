package ledger

import (
	"sync"

	"exec-engine-go/market"
)

// Fill 一次执行的不可变成交记录，生成后不再修改。
type Fill struct {
	ID          string
	Symbol      string
	Side        market.Side
	Price       float64
	Size        float64
	RealizedPnL float64
}

type position struct {
	qty float64
	avg float64
}

// Ledger 维护每个交易对的净仓位与加权平均成本。
// 所有"读仓位-计算-写仓位"序列在同一把锁内完成，
// 并发 Apply 不会出现部分交错。
//
// 已知限制：已实现盈亏只在仓位穿越零轴时确认，
// 同向减仓（未翻转方向）不单独确认盈亏。
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*position
}

func New() *Ledger {
	return &Ledger{positions: make(map[string]*position)}
}

// Apply 将一笔执行落账并返回本次的已实现盈亏。
// 无条件成功；拒绝逻辑在上游风控完成。
func (l *Ledger) Apply(id, symbol string, side market.Side, size, price float64) Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(id, symbol, side, size, price)
}

// applyLocked 为已持锁调用准备；见 Locked 返回的句柄。
func (l *Ledger) applyLocked(id, symbol string, side market.Side, size, price float64) Fill {
	pos := l.positions[symbol]
	if pos == nil {
		pos = &position{}
		l.positions[symbol] = pos
	}

	currentPos := pos.qty
	avgPrice := pos.avg

	delta := side.Sign() * size
	newPos := currentPos + delta

	// 只在穿越零轴时确认盈亏
	var pnl float64
	if (currentPos > 0 && newPos < 0) || (currentPos < 0 && newPos > 0) {
		closed := min(abs(currentPos), size)
		direction := 1.0
		if currentPos < 0 {
			direction = -1.0
		}
		pnl = (price - avgPrice) * closed * direction
	}

	// 加权平均成本：以本次成交数量为权重，而非净变化量。
	// newPos == 0 时跳过，留存的 avg 视为过期，下次开仓重算。
	if newPos != 0 {
		totalCost := currentPos*avgPrice + size*price
		pos.avg = totalCost / abs(newPos)
	}
	pos.qty = newPos

	return Fill{
		ID:          id,
		Symbol:      symbol,
		Side:        side,
		Price:       price,
		Size:        size,
		RealizedPnL: pnl,
	}
}

// Position 返回指定交易对的净仓位，未知交易对返回 0。
func (l *Ledger) Position(symbol string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pos := l.positions[symbol]; pos != nil {
		return pos.qty
	}
	return 0
}

// AvgPrice 返回平均成本；仓位为零时 ok=false，存量 avg 不可读。
func (l *Ledger) AvgPrice(symbol string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos := l.positions[symbol]
	if pos == nil || pos.qty == 0 {
		return 0, false
	}
	return pos.avg, true
}

// Positions 返回全部净仓位快照。
func (l *Ledger) Positions() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]float64, len(l.positions))
	for sym, pos := range l.positions {
		out[sym] = pos.qty
	}
	return out
}

// Tx 是持有账本排他锁的句柄，供"风控检查+落账"原子执行。
type Tx struct {
	l *Ledger
}

// Locked 获取排他锁并返回句柄；调用方必须调用 Unlock。
func (l *Ledger) Locked() Tx {
	l.mu.Lock()
	return Tx{l: l}
}

func (tx Tx) Unlock() {
	tx.l.mu.Unlock()
}

// Position 在持锁状态下读取净仓位。
func (tx Tx) Position(symbol string) float64 {
	if pos := tx.l.positions[symbol]; pos != nil {
		return pos.qty
	}
	return 0
}

// Apply 在持锁状态下落账。
func (tx Tx) Apply(id, symbol string, side market.Side, size, price float64) Fill {
	return tx.l.applyLocked(id, symbol, side, size, price)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
