package market

// Tick 表示一条标准化的行情事件，不可变，每个市场事件一条。
type Tick struct {
	Symbol    string
	Price     float64
	Size      float64
	Timestamp int64
	Venue     string
}

// Valid 校验基础字段；非法 tick 在入口处丢弃。
func (t Tick) Valid() bool {
	return t.Symbol != "" && t.Price >= 0 && t.Size >= 0
}
