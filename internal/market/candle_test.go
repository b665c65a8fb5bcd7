package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandleBodyAndWick(t *testing.T) {
	up := Candle{Open: 100, High: 110, Low: 99, Close: 104}
	assert.Equal(t, 4.0, up.Body())
	assert.Equal(t, 6.0, up.UpperWick(), "上影线从实体上沿算起")

	down := Candle{Open: 104, High: 110, Low: 99, Close: 100}
	assert.Equal(t, 4.0, down.Body())
	assert.Equal(t, 6.0, down.UpperWick(), "阴线上影线同样从实体上沿算起")

	doji := Candle{Open: 100, High: 100, Low: 100, Close: 100}
	assert.Zero(t, doji.Body())
	assert.Zero(t, doji.UpperWick())
}
