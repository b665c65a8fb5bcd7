package engine

// simpleRSI 用最近 period 个相邻差分的平均涨跌幅之比计算 RSI。
// 历史不足一个完整窗口时返回中性值 50；无跌幅时返回 100。
func simpleRSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = 14
	}
	if len(closes) < period+1 {
		return 50
	}
	var gains, losses float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
