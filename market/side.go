package market

// Side 买卖方向。
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Sign 返回方向符号：买 +1，卖 -1。
func (s Side) Sign() float64 {
	if s == Buy {
		return 1
	}
	return -1
}

// ParseSide 解析外部策略返回的方向字符串。
// 未知值返回 ok=false，调用方按"无信号"处理，不视为错误。
func ParseSide(raw string) (Side, bool) {
	switch raw {
	case "BUY":
		return Buy, true
	case "SELL":
		return Sell, true
	default:
		return "", false
	}
}
