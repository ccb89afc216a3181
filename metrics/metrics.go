// Package metrics provides Prometheus metrics for the execution core
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 汇总执行核心的指标。
// reg 可传入独立 Registry，便于单测避免重复注册。
type Collector struct {
	Ticks          prometheus.Counter
	Signals        prometheus.Counter
	SignalTimeouts prometheus.Counter
	Fills          prometheus.Counter
	RiskRejects    prometheus.Counter
	FillsDropped   prometheus.Counter
	SignalLatency  prometheus.Histogram
	Position       *prometheus.GaugeVec
	RealizedPnL    prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "exec_ticks_total",
			Help: "处理的行情事件数量",
		}),
		Signals: factory.NewCounter(prometheus.CounterOpts{
			Name: "exec_signals_total",
			Help: "策略返回的有效信号数量",
		}),
		SignalTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "exec_signal_timeouts_total",
			Help: "策略调用超时/失败数量",
		}),
		Fills: factory.NewCounter(prometheus.CounterOpts{
			Name: "exec_fills_total",
			Help: "已落账的成交数量",
		}),
		RiskRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "exec_risk_rejects_total",
			Help: "风控拒绝数量",
		}),
		FillsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "exec_fills_dropped_total",
			Help: "因输出通道满而丢弃的成交数量",
		}),
		SignalLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exec_signal_latency_seconds",
			Help:    "策略调用耗时",
			Buckets: prometheus.DefBuckets,
		}),
		Position: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "exec_position",
			Help: "当前净仓位",
		}, []string{"symbol"}),
		RealizedPnL: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exec_realized_pnl",
			Help: "累计已实现盈亏",
		}),
	}
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
