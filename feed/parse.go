package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"exec-engine-go/market"
)

// wireTick 行情源的原始帧格式。
type wireTick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Timestamp int64   `json:"timestamp"`
	Venue     string  `json:"venue"`
}

var (
	errEmptySymbol  = errors.New("empty symbol")
	errNegativeTick = errors.New("negative price or size")
)

// ParseTick 解析一条原始帧；defaultVenue 在帧未携带来源时生效。
func ParseTick(raw []byte, defaultVenue string) (market.Tick, error) {
	var w wireTick
	if err := json.Unmarshal(raw, &w); err != nil {
		return market.Tick{}, fmt.Errorf("decode frame: %w", err)
	}
	if w.Symbol == "" {
		return market.Tick{}, errEmptySymbol
	}
	if w.Price < 0 || w.Size < 0 {
		return market.Tick{}, errNegativeTick
	}
	venue := w.Venue
	if venue == "" {
		venue = defaultVenue
	}
	return market.Tick{
		Symbol:    w.Symbol,
		Price:     w.Price,
		Size:      w.Size,
		Timestamp: w.Timestamp,
		Venue:     venue,
	}, nil
}
