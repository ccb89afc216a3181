package signal

import (
	"context"
	"time"

	"exec-engine-go/market"
)

// TimeBoxed 为任意 Source 加上时间预算。
// 超时返回 ErrTimeout，调用方按"无信号"处理；
// 底层调用不可中断时会在后台跑完，结果被丢弃。
type TimeBoxed struct {
	Inner   Source
	Timeout time.Duration
}

type result struct {
	sig *TradeSignal
	err error
}

func (t TimeBoxed) OnTick(ctx context.Context, tick market.Tick) (*TradeSignal, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		sig, err := t.Inner.OnTick(ctx, tick)
		ch <- result{sig: sig, err: err}
	}()

	select {
	case r := <-ch:
		return r.sig, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}
