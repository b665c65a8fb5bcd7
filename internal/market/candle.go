package market

import "time"

// Candle 单根 K 线，序列约定从旧到新排列。
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Body 返回开收盘价差的绝对值。
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperWick 返回最高价超出开收盘区间的部分。
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	if c.High <= top {
		return 0
	}
	return c.High - top
}

// PriceSample 一次实时价格观测。
type PriceSample struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}
