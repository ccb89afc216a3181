package risk

// Guard 是通用的交易前检查接口，Gate 及任何附加校验均可实现。
type Guard interface {
	PreTrade(symbol string, proposedQty, currentPos float64) error
}

// MultiGuard 顺序执行多个 Guard，只要有一个返回错误则中止。
type MultiGuard struct {
	Guards []Guard
}

func (m MultiGuard) PreTrade(symbol string, proposedQty, currentPos float64) error {
	for _, g := range m.Guards {
		if g == nil {
			continue
		}
		if err := g.PreTrade(symbol, proposedQty, currentPos); err != nil {
			return err
		}
	}
	return nil
}
