// internal/pricing/pricing_test.go
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentPrice(t *testing.T) {
	tests := []struct {
		name      string
		base      float64
		purchases int64
		cashouts  int64
		want      float64
	}{
		{"no activity", 10.00, 0, 0, 10.00},
		{"three purchases one cashout", 10.00, 3, 1, 10.75},
		{"single purchase", 20.00, 1, 0, 20.25},
		{"purchase then cashout cancel out", 20.00, 1, 1, 20.00},
		{"cashouts exceed purchases", 5.00, 0, 4, 4.00},
		{"fractional base", 9.99, 2, 0, 10.49},
		{"large counters", 1.00, 10000, 0, 2501.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CurrentPrice(tt.base, tt.purchases, tt.cashouts), 1e-9)
		})
	}
}

func TestCurrentPriceOrderIndependence(t *testing.T) {
	// The price depends only on the final counter values, not on the
	// interleaving of purchase and cashout events. Replay the same event
	// multiset in different orders, recomputing after every step the way
	// the orchestrator does, and check the end state always agrees.
	base := 12.30
	const purchases, cashouts = 37, 21

	replay := func(events []rune) float64 {
		var p, c int64
		var price float64
		for _, ev := range events {
			if ev == 'p' {
				p++
			} else {
				c++
			}
			price = CurrentPrice(base, p, c)
		}
		return price
	}

	interleaved := make([]rune, 0, purchases+cashouts)
	for p, c := 0, 0; p < purchases || c < cashouts; {
		if c < cashouts && (p+c)%3 == 0 {
			interleaved = append(interleaved, 'c')
			c++
		} else if p < purchases {
			interleaved = append(interleaved, 'p')
			p++
		} else {
			interleaved = append(interleaved, 'c')
			c++
		}
	}
	frontLoaded := make([]rune, 0, purchases+cashouts)
	for i := 0; i < purchases; i++ {
		frontLoaded = append(frontLoaded, 'p')
	}
	for i := 0; i < cashouts; i++ {
		frontLoaded = append(frontLoaded, 'c')
	}

	direct := CurrentPrice(base, purchases, cashouts)
	assert.Equal(t, direct, replay(interleaved))
	assert.Equal(t, direct, replay(frontLoaded))
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 10.75, Round2(10.745), 1e-9)
	assert.InDelta(t, 10.74, Round2(10.744), 1e-9)
	assert.InDelta(t, -10.75, Round2(-10.745), 1e-9) // half away from zero
	assert.InDelta(t, 0, Round2(0), 1e-9)
	assert.InDelta(t, 2.00, Round2(1.999), 1e-9)
}

func TestProfit(t *testing.T) {
	assert.InDelta(t, 0.25, Profit(20.25, 20.00), 1e-9)
	assert.InDelta(t, -1.50, Profit(18.50, 20.00), 1e-9)
	assert.InDelta(t, 0, Profit(20.00, 20.00), 1e-9)
}
