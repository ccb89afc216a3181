package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"exec-engine-go/engine"
	"exec-engine-go/infrastructure/logger"
	"exec-engine-go/ledger"
	"exec-engine-go/market"
	"exec-engine-go/metrics"
	"exec-engine-go/risk"
	"exec-engine-go/signal/meanrev"
)

// 一个极简的本地模拟：随机游走生成 tick，驱动完整的
// 信号→风控→账本→成交流水线。仅用于演示与浸泡测试，不连接真实行情。
func main() {
	symbol := flag.String("symbol", "BTCUSDT", "trading symbol")
	ticks := flag.Int("ticks", 500, "number of random ticks to simulate")
	seed := flag.Int64("seed", 0, "rng seed (0 = time-based)")
	basePrice := flag.Float64("basePrice", 100, "starting price")
	vol := flag.Float64("vol", 0.5, "per-tick gaussian price step")
	maxPosition := flag.Float64("maxPosition", 1000, "risk: max net position")
	lookback := flag.Int("lookback", 20, "strategy lookback window")
	clipSize := flag.Float64("clipSize", 100, "strategy clip size")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	lg := logger.NewNop()
	collector := metrics.NewCollector(prometheus.NewRegistry())

	gate, err := risk.NewGate(risk.Limits{MaxPosition: *maxPosition, MaxDrawdownFrac: 0.05})
	if err != nil {
		panic(err)
	}

	book := ledger.New()
	strat := meanrev.New(meanrev.Config{Lookback: *lookback, BandK: 2, ClipSize: *clipSize})

	coord, err := engine.New(engine.Config{}, engine.Components{
		Source:  strat,
		Guard:   gate,
		Ledger:  book,
		Logger:  lg,
		Metrics: collector,
		IDs:     &engine.SeqID{Prefix: "sim-"},
	})
	if err != nil {
		panic(err)
	}

	done := make(chan struct{})
	var pnl float64
	go func() {
		defer close(done)
		for fill := range coord.Fills() {
			pnl += fill.RealizedPnL
			fmt.Printf("fill %s %s %.0f@%.2f pnl=%.2f\n",
				fill.ID, fill.Side, fill.Size, fill.Price, fill.RealizedPnL)
		}
	}()

	ctx := context.Background()
	price := *basePrice
	for i := 0; i < *ticks; i++ {
		price += rng.NormFloat64() * *vol
		if price < 1 {
			price = 1
		}
		coord.ProcessTick(ctx, market.Tick{
			Symbol:    *symbol,
			Price:     price,
			Size:      1,
			Timestamp: int64(i),
			Venue:     "sim",
		})
	}

	coord.Close()
	<-done

	total, signals, fills, rejects, _ := coord.GetStatistics()
	fmt.Printf("seed=%d ticks=%d signals=%d fills=%d rejects=%d position=%.0f realized_pnl=%.2f\n",
		*seed, total, signals, fills, rejects, book.Position(*symbol), pnl)
}
