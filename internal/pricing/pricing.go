// internal/pricing/pricing.go
package pricing

import "math"

// PriceStep is the amount the price moves per purchase or cashout.
const PriceStep = 0.25

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CurrentPrice derives a product's price from its base price and counters.
// Rounding is applied once at the end, so the result depends only on the
// final counter values and never accumulates drift across events.
func CurrentPrice(basePrice float64, totalPurchases, totalCashouts int64) float64 {
	return Round2(basePrice + PriceStep*float64(totalPurchases) - PriceStep*float64(totalCashouts))
}

// Profit is the amount owed on a cashout: the current price at cashout time
// minus the price paid at purchase time.
func Profit(currentPrice, purchasePrice float64) float64 {
	return Round2(currentPrice - purchasePrice)
}
