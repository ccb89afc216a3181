package risk

import (
	"errors"
	"math"
	"sort"
)

var ErrNaNReturn = errors.New("nan in return series")

// minVaRSamples 低于该样本量时 VaR 退化为 0（定义行为，非错误）。
const minVaRSamples = 30

// HistoricalVaR 历史模拟法 95% VaR：升序排序后取 5% 分位处的收益，
// 即 95% 置信下的最差预期收益。NaN 在入口处拒绝，避免污染排序全序。
func HistoricalVaR(returns []float64) (float64, error) {
	for _, r := range returns {
		if math.IsNaN(r) {
			return 0, ErrNaNReturn
		}
	}
	if len(returns) < minVaRSamples {
		return 0, nil
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * 0.05)
	if idx < 0 || idx >= len(sorted) {
		return 0, nil
	}
	return sorted[idx], nil
}
