package signal

import (
	"context"
	"errors"

	"exec-engine-go/market"
)

var ErrTimeout = errors.New("signal source timeout")

// TradeSignal 外部策略对单个 tick 的交易建议，每 tick 至多一条。
type TradeSignal struct {
	Side  market.Side
	Size  float64
	Price float64
}

// Valid 校验信号字段；非法信号按"无信号"处理。
func (s TradeSignal) Valid() bool {
	return (s.Side == market.Buy || s.Side == market.Sell) && s.Size > 0 && s.Price >= 0
}

// Source 外部策略边界。实现可以在进程内，也可以跨 IPC/FFI；
// 核心不假设其纯度、确定性或时延，返回 nil 表示无操作。
type Source interface {
	OnTick(ctx context.Context, tick market.Tick) (*TradeSignal, error)
}

// Raw 外部策略的原始载荷，方向为字符串，未识别值丢弃。
type Raw struct {
	Action string  `json:"action"`
	Size   float64 `json:"size"`
	Price  float64 `json:"price"`
}

// FromRaw 将原始载荷转换为 TradeSignal。
// 未知 action 或非法字段返回 nil，不作为错误传播。
func FromRaw(raw *Raw) *TradeSignal {
	if raw == nil {
		return nil
	}
	side, ok := market.ParseSide(raw.Action)
	if !ok {
		return nil
	}
	sig := TradeSignal{Side: side, Size: raw.Size, Price: raw.Price}
	if !sig.Valid() {
		return nil
	}
	return &sig
}
