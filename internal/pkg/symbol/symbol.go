package symbol

import "strings"

type Format string

const (
	FormatCanonical Format = "canonical"
	FormatBingX     Format = "bingx"
	FormatBinance   Format = "binance"
)

type Converter interface {
	ToExchange(canonical string) string

	FromExchange(raw string) string

	Format() Format
}

type Symbol struct {
	Base  string
	Quote string
}

// Canonical 内部统一采用 BASE-QUOTE 形式（报警源与 BingX 同形）。
func (s Symbol) Canonical() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "-" + s.Quote
}

func (s Symbol) Joined() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}

	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	for _, sep := range []string{"-", "/", "_"} {
		if parts := strings.SplitN(s, sep, 2); len(parts) == 2 {
			return Symbol{
				Base:  strings.TrimSpace(parts[0]),
				Quote: strings.TrimSpace(parts[1]),
			}
		}
	}

	quoteCurrencies := []string{"USDT", "USDC", "BUSD", "TUSD", "BTC", "ETH"}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{
				Base:  s[:len(s)-len(quote)],
				Quote: quote,
			}
		}
	}

	return Symbol{}
}

// FromCurrency 根据报警里的币种名构造默认 USDT 交易对。
func FromCurrency(currency string) Symbol {
	base := strings.ToUpper(strings.TrimSpace(currency))
	if base == "" {
		return Symbol{}
	}
	if strings.ContainsAny(base, "-/_") {
		return Parse(base)
	}
	return Symbol{Base: base, Quote: "USDT"}
}

func Normalize(s string) string {
	return Parse(s).Canonical()
}

func IsValid(s string) bool {
	sym := Parse(s)
	return sym.Base != "" && sym.Quote != ""
}
