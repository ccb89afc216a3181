package feed

import "testing"

func TestParseTick(t *testing.T) {
	raw := []byte(`{"symbol":"BTCUSDT","price":65000.5,"size":0.25,"timestamp":1712000000,"venue":"binance"}`)
	tick, err := ParseTick(raw, "fallback")
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if tick.Symbol != "BTCUSDT" || tick.Price != 65000.5 || tick.Venue != "binance" {
		t.Fatalf("unexpected tick %+v", tick)
	}
}

func TestParseTickDefaultVenue(t *testing.T) {
	raw := []byte(`{"symbol":"ETHUSDT","price":3000,"size":1,"timestamp":1}`)
	tick, err := ParseTick(raw, "sim")
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if tick.Venue != "sim" {
		t.Fatalf("expected fallback venue, got %q", tick.Venue)
	}
}

func TestParseTickRejects(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"not json", `tick 100`},
		{"empty symbol", `{"price":1,"size":1}`},
		{"negative price", `{"symbol":"A","price":-1,"size":1}`},
		{"negative size", `{"symbol":"A","price":1,"size":-2}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTick([]byte(tc.raw), ""); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
