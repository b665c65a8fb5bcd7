package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ABC-USDT", "ABC-USDT"},
		{"abc-usdt", "ABC-USDT"},
		{"ABC/USDT", "ABC-USDT"},
		{"ABC_USDT", "ABC-USDT"},
		{"ABCUSDT", "ABC-USDT"},
		{"BTCUSDT", "BTC-USDT"},
		{"ETHBTC", "ETH-BTC"},
		{"BINANCE:ABCUSDT", "ABC-USDT"},
		{" abc-usdt ", "ABC-USDT"},
		{"", ""},
		{"USDT", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Parse(tc.in).Canonical(), "in=%q", tc.in)
	}
}

func TestFromCurrency(t *testing.T) {
	assert.Equal(t, "ABC-USDT", FromCurrency("abc").Canonical())
	assert.Equal(t, "ABC-USDT", FromCurrency(" ABC ").Canonical())
	assert.Equal(t, "ABC-BTC", FromCurrency("abc/btc").Canonical())
	assert.Equal(t, "", FromCurrency("").Canonical())
}

func TestConverters(t *testing.T) {
	assert.Equal(t, "ABC-USDT", BingX.ToExchange("ABC-USDT"))
	assert.Equal(t, "ABC-USDT", BingX.FromExchange("ABC-USDT"))
	assert.Equal(t, "ABCUSDT", Binance.ToExchange("ABC-USDT"))
	assert.Equal(t, "ABC-USDT", Binance.FromExchange("ABCUSDT"))
}
