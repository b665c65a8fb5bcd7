// Package trading provides order sizing and price rounding helpers.
package trading

import "github.com/shopspring/decimal"

// DecimalsForPrice 按价格量级选择精度：>1000 两位，(1,1000] 四位，其余六位。
func DecimalsForPrice(price float64) int32 {
	switch {
	case price > 1000:
		return 2
	case price > 1:
		return 4
	default:
		return 6
	}
}

// RoundByMagnitude rounds value to the precision implied by price magnitude.
// Used for tp/sl price levels so they stay on a tick the exchange accepts.
func RoundByMagnitude(price, value float64) float64 {
	return decimal.NewFromFloat(value).Round(DecimalsForPrice(price)).InexactFloat64()
}

// QuantityForNotional 把固定名义本金换算成下单数量（按价格量级取整）。
func QuantityForNotional(notional, price float64) float64 {
	if notional <= 0 || price <= 0 {
		return 0
	}
	qty := decimal.NewFromFloat(notional).Div(decimal.NewFromFloat(price))
	return qty.Round(DecimalsForPrice(price)).InexactFloat64()
}
