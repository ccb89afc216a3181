package risk

import (
	"errors"
	"fmt"
)

var (
	ErrPositionLimit = errors.New("position limit exceed")
)

// Limits 风控配置，启动时注入，核心运行期间只读。
type Limits struct {
	MaxPosition     float64 `yaml:"maxPosition"`
	MaxDrawdownFrac float64 `yaml:"maxDrawdownFrac"`
}

// Validate 校验限额配置。
func (l Limits) Validate() error {
	if l.MaxPosition <= 0 {
		return errors.New("risk.maxPosition must be > 0")
	}
	if l.MaxDrawdownFrac <= 0 || l.MaxDrawdownFrac >= 1 {
		return errors.New("risk.maxDrawdownFrac must be in (0,1)")
	}
	return nil
}

// Gate 交易前限额检查。无内部状态，可在不加锁的情况下并发调用；
// 调用方负责传入一致的 currentPos 快照（见 engine 的临界区）。
type Gate struct {
	limits Limits
}

func NewGate(limits Limits) (*Gate, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Gate{limits: limits}, nil
}

// CheckPreTrade 仅当结果净仓位不超过 MaxPosition 时放行。
func (g *Gate) CheckPreTrade(symbol string, proposedQty, currentPos float64) bool {
	return abs(currentPos+proposedQty) <= g.limits.MaxPosition
}

// PreTrade 以错误形式暴露同一检查，满足 Guard 接口。
func (g *Gate) PreTrade(symbol string, proposedQty, currentPos float64) error {
	if !g.CheckPreTrade(symbol, proposedQty, currentPos) {
		return fmt.Errorf("%w: %s |%.2f%+.2f| > %.2f",
			ErrPositionLimit, symbol, currentPos, proposedQty, g.limits.MaxPosition)
	}
	return nil
}

// Limits 返回注入的限额副本。
func (g *Gate) Limits() Limits {
	return g.limits
}

// DrawdownBreached 判断权益相对峰值的回撤是否超过 MaxDrawdownFrac。
// 不在每 tick 路径上执行，仅供停机报告/运维面使用。
func (g *Gate) DrawdownBreached(equity, peak float64) bool {
	if peak <= 0 {
		return false
	}
	return (peak-equity)/peak > g.limits.MaxDrawdownFrac
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
