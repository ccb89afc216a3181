package ledger

import (
	"math"
	"sync"
	"testing"

	"exec-engine-go/market"
)

func TestApplyAllBuys(t *testing.T) {
	l := New()
	sizes := []float64{10, 20, 30}
	prices := []float64{100, 110, 120}

	var sumQty, sumCost float64
	for i := range sizes {
		fill := l.Apply("f", "BTCUSDT", market.Buy, sizes[i], prices[i])
		if fill.RealizedPnL != 0 {
			t.Fatalf("same-direction add must not realize pnl, got %f", fill.RealizedPnL)
		}
		sumQty += sizes[i]
		sumCost += sizes[i] * prices[i]
	}

	if got := l.Position("BTCUSDT"); got != sumQty {
		t.Fatalf("expected position %f got %f", sumQty, got)
	}
	avg, ok := l.AvgPrice("BTCUSDT")
	if !ok {
		t.Fatalf("expected avg price defined")
	}
	if want := sumCost / sumQty; math.Abs(avg-want) > 1e-9 {
		t.Fatalf("expected avg %f got %f", want, avg)
	}
}

func TestApplyZeroCross(t *testing.T) {
	l := New()
	l.Apply("f1", "ETHUSDT", market.Buy, 100, 10)

	// 多头 100@10，卖出 150@12：穿越零轴，closed=100，pnl=+200
	fill := l.Apply("f2", "ETHUSDT", market.Sell, 150, 12)
	if fill.RealizedPnL != 200 {
		t.Fatalf("expected pnl 200 got %f", fill.RealizedPnL)
	}
	if got := l.Position("ETHUSDT"); got != -50 {
		t.Fatalf("expected position -50 got %f", got)
	}
	// 穿越后的 avg 按成交量加权混合得出：(100*10+150*12)/50 = 56
	avg, ok := l.AvgPrice("ETHUSDT")
	if !ok || avg != 56 {
		t.Fatalf("expected avg 56 got %f (ok=%v)", avg, ok)
	}
}

func TestApplySameDirectionAdd(t *testing.T) {
	l := New()
	l.Apply("f1", "ETHUSDT", market.Buy, 50, 10)
	fill := l.Apply("f2", "ETHUSDT", market.Buy, 50, 14)
	if fill.RealizedPnL != 0 {
		t.Fatalf("expected pnl 0 got %f", fill.RealizedPnL)
	}
	avg, _ := l.AvgPrice("ETHUSDT")
	if avg != 12 {
		t.Fatalf("expected avg 12 got %f", avg)
	}
}

func TestApplyPartialReduceNoCross(t *testing.T) {
	l := New()
	l.Apply("f1", "SOLUSDT", market.Buy, 100, 10)

	// 减仓但未翻转方向：按确认策略不实现盈亏
	fill := l.Apply("f2", "SOLUSDT", market.Sell, 40, 15)
	if fill.RealizedPnL != 0 {
		t.Fatalf("partial reduce must not realize pnl, got %f", fill.RealizedPnL)
	}
	if got := l.Position("SOLUSDT"); got != 60 {
		t.Fatalf("expected position 60 got %f", got)
	}
}

func TestApplyShortCross(t *testing.T) {
	l := New()
	l.Apply("f1", "SOLUSDT", market.Sell, 100, 20)

	// 空头 100@20，买入 150@15：closed=100，pnl=(15-20)*100*(-1)=+500
	fill := l.Apply("f2", "SOLUSDT", market.Buy, 150, 15)
	if fill.RealizedPnL != 500 {
		t.Fatalf("expected pnl 500 got %f", fill.RealizedPnL)
	}
	if got := l.Position("SOLUSDT"); got != 50 {
		t.Fatalf("expected position 50 got %f", got)
	}
}

func TestFlatPositionAvgUndefined(t *testing.T) {
	l := New()
	l.Apply("f1", "BTCUSDT", market.Buy, 100, 10)
	l.Apply("f2", "BTCUSDT", market.Sell, 100, 12)

	if got := l.Position("BTCUSDT"); got != 0 {
		t.Fatalf("expected flat got %f", got)
	}
	// 平仓后 avg 过期不可读
	if _, ok := l.AvgPrice("BTCUSDT"); ok {
		t.Fatalf("avg price must be undefined when flat")
	}

	// 重新开仓后 avg 用新成交价重算
	l.Apply("f3", "BTCUSDT", market.Buy, 10, 30)
	avg, ok := l.AvgPrice("BTCUSDT")
	if !ok || avg != 30 {
		t.Fatalf("expected fresh avg 30 got %f (ok=%v)", avg, ok)
	}
}

func TestUnknownSymbol(t *testing.T) {
	l := New()
	if got := l.Position("NOPE"); got != 0 {
		t.Fatalf("expected 0 got %f", got)
	}
	if _, ok := l.AvgPrice("NOPE"); ok {
		t.Fatalf("expected undefined avg")
	}
}

func TestPositionsSnapshot(t *testing.T) {
	l := New()
	l.Apply("f1", "A", market.Buy, 10, 1)
	l.Apply("f2", "B", market.Sell, 5, 2)

	snap := l.Positions()
	if snap["A"] != 10 || snap["B"] != -5 {
		t.Fatalf("unexpected snapshot %v", snap)
	}
	// 快照是副本，修改不影响账本
	snap["A"] = 999
	if l.Position("A") != 10 {
		t.Fatalf("snapshot must be a copy")
	}
}

func TestConcurrentApply(t *testing.T) {
	l := New()
	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Apply("f", "BTCUSDT", market.Buy, 1, 100)
				_ = l.Position("BTCUSDT")
			}
		}()
	}
	wg.Wait()

	if got := l.Position("BTCUSDT"); got != workers*perWorker {
		t.Fatalf("expected %d got %f", workers*perWorker, got)
	}
	avg, ok := l.AvgPrice("BTCUSDT")
	if !ok || avg != 100 {
		t.Fatalf("expected avg 100 got %f", avg)
	}
}
