package symbol

import "strings"

type BinanceConverter struct{}

func (BinanceConverter) ToExchange(canonical string) string {
	return Parse(canonical).Joined()
}

func (BinanceConverter) FromExchange(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	return Parse(s).Canonical()
}

func (BinanceConverter) Format() Format {
	return FormatBinance
}

var Binance = BinanceConverter{}
