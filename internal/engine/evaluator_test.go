package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pumpwatch/internal/gateway/exchange"
	"pumpwatch/internal/market"
	"pumpwatch/internal/profile"
)

type MockExchange struct {
	mock.Mock
}

func (m *MockExchange) Name() string { return "mock" }

func (m *MockExchange) GetPrice(ctx context.Context, symbol string) (float64, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockExchange) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	args := m.Called(ctx, symbol, interval, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Candle), args.Error(1)
}

func (m *MockExchange) PlaceMarketOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.OrderAck, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.OrderAck), args.Error(1)
}

func (m *MockExchange) ClosePosition(ctx context.Context, symbol string) (*exchange.CloseAck, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.CloseAck), args.Error(1)
}

func (m *MockExchange) ListOpenPositions(ctx context.Context) ([]exchange.PositionSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]exchange.PositionSnapshot), args.Error(1)
}

// pumpCandles 构造一段稳定上涨后冲高的 K 线：最后一根放量、带长上影线，
// 相对前一根收盘上涨 pumpPct。
func pumpCandles(n int, pumpPct float64, lastVolume float64) []market.Candle {
	candles := make([]market.Candle, 0, n)
	price := 100.0
	for i := 0; i < n-1; i++ {
		open := price
		price *= 1.01
		candles = append(candles, market.Candle{
			OpenTime:  int64(i),
			CloseTime: int64(i),
			Open:      open,
			High:      price,
			Low:       open,
			Close:     price,
			Volume:    10,
		})
	}
	open := price
	close := open * (1 + pumpPct/100)
	body := close - open
	candles = append(candles, market.Candle{
		OpenTime:  int64(n - 1),
		CloseTime: int64(n - 1),
		Open:      open,
		High:      close + 2*body, // wick 2 倍于实体
		Low:       open,
		Close:     close,
		Volume:    lastVolume,
	})
	return candles
}

func testSettings() EvaluatorSettings {
	return EvaluatorSettings{
		Interval:    "1m",
		CandleLimit: 50,
		SampleCount: 3,
		SampleGap:   time.Millisecond,
		CallTimeout: time.Second,
	}
}

func TestEvaluatePass(t *testing.T) {
	client := new(MockExchange)
	candles := pumpCandles(20, 6, 30)
	last := candles[len(candles)-1].Close
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(candles, nil)
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*0.999, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*0.998, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*0.997, nil).Once()

	ev := NewEvaluator(client, nil, testSettings())
	v, err := ev.Evaluate(context.Background(), "ABC-USDT", 5)
	assert.NoError(t, err)
	assert.True(t, v.Pass)
	assert.Empty(t, v.Reason)
	assert.InDelta(t, 6, v.PumpPct, 0.01)
	assert.True(t, v.VolumeSpike)
	assert.True(t, v.WickReversal)
	assert.True(t, v.MomentumFade)
	assert.Greater(t, v.RSI, 80.0)
	client.AssertExpectations(t)
}

func TestEvaluatePumpNotConfirmed(t *testing.T) {
	client := new(MockExchange)
	// 真实只涨 2%，报警声称 5%，且成交量也没放大：必须报第一个闸门的原因。
	candles := pumpCandles(20, 2, 10)
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(candles, nil)

	ev := NewEvaluator(client, nil, testSettings())
	v, err := ev.Evaluate(context.Background(), "ABC-USDT", 5)
	assert.NoError(t, err)
	assert.False(t, v.Pass)
	assert.Contains(t, v.Reason, "pump not confirmed")
	// 短路：没到动能采样那一步
	client.AssertNotCalled(t, "GetPrice", mock.Anything, mock.Anything)
}

func TestEvaluateNoVolumeSpike(t *testing.T) {
	client := new(MockExchange)
	candles := pumpCandles(20, 6, 10)
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(candles, nil)

	ev := NewEvaluator(client, nil, testSettings())
	v, err := ev.Evaluate(context.Background(), "ABC-USDT", 5)
	assert.NoError(t, err)
	assert.False(t, v.Pass)
	assert.Equal(t, "no volume spike", v.Reason)
}

func TestEvaluateNoWickReversal(t *testing.T) {
	client := new(MockExchange)
	candles := pumpCandles(20, 6, 30)
	candles[len(candles)-1].High = candles[len(candles)-1].Close // 去掉上影线
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(candles, nil)

	ev := NewEvaluator(client, nil, testSettings())
	v, err := ev.Evaluate(context.Background(), "ABC-USDT", 5)
	assert.NoError(t, err)
	assert.False(t, v.Pass)
	assert.Equal(t, "no wick reversal", v.Reason)
}

func TestEvaluateMomentumNotFading(t *testing.T) {
	client := new(MockExchange)
	candles := pumpCandles(20, 6, 30)
	last := candles[len(candles)-1].Close
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(candles, nil)
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*1.001, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*1.002, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*1.003, nil).Once()

	ev := NewEvaluator(client, nil, testSettings())
	v, err := ev.Evaluate(context.Background(), "ABC-USDT", 5)
	assert.NoError(t, err)
	assert.False(t, v.Pass)
	assert.Equal(t, "momentum not fading", v.Reason)
}

func TestEvaluateRSIBelowFloor(t *testing.T) {
	client := new(MockExchange)
	// 前段阴跌拉低 RSI，最后一根小幅冲高，其余闸门全过。
	candles := make([]market.Candle, 0, 20)
	price := 100.0
	for i := 0; i < 19; i++ {
		open := price
		price *= 0.99
		candles = append(candles, market.Candle{
			OpenTime: int64(i), Open: open, High: open, Low: price, Close: price, Volume: 10,
		})
	}
	open := price
	close := open * 1.01
	body := close - open
	candles = append(candles, market.Candle{
		OpenTime: 19, Open: open, High: close + 2*body, Low: open, Close: close, Volume: 30,
	})
	last := close
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(candles, nil)
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*0.999, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*0.998, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(last*0.997, nil).Once()

	ev := NewEvaluator(client, nil, testSettings())
	v, err := ev.Evaluate(context.Background(), "ABC-USDT", 0.5)
	assert.NoError(t, err)
	assert.False(t, v.Pass)
	assert.Contains(t, v.Reason, "rsi")
	assert.Less(t, v.RSI, 80.0)
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	client := new(MockExchange)
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).
		Return(pumpCandles(5, 6, 30), nil)

	ev := NewEvaluator(client, nil, testSettings())
	_, err := ev.Evaluate(context.Background(), "ABC-USDT", 5)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestEvaluateFetchErrorPropagates(t *testing.T) {
	client := new(MockExchange)
	upstream := errors.New("rest timeout")
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(nil, upstream)

	ev := NewEvaluator(client, nil, testSettings())
	_, err := ev.Evaluate(context.Background(), "ABC-USDT", 5)
	assert.ErrorIs(t, err, upstream)
}

func TestEvaluatorProfileOverride(t *testing.T) {
	client := new(MockExchange)
	reg := profile.NewStatic(profile.Thresholds{VolumeFactor: 4})
	candles := pumpCandles(20, 6, 30) // 3 倍于基线，但该档要求 4 倍
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(candles, nil)

	ev := NewEvaluator(client, reg, testSettings())
	v, err := ev.Evaluate(context.Background(), "ABC-USDT", 5)
	assert.NoError(t, err)
	assert.Equal(t, "no volume spike", v.Reason)
}

func TestSimpleRSI(t *testing.T) {
	t.Run("不足一个窗口返回中性值", func(t *testing.T) {
		assert.Equal(t, 50.0, simpleRSI([]float64{1, 2, 3}, 14))
	})
	t.Run("全涨返回100", func(t *testing.T) {
		closes := make([]float64, 15)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		assert.Equal(t, 100.0, simpleRSI(closes, 14))
	})
	t.Run("涨跌对半接近50", func(t *testing.T) {
		closes := make([]float64, 15)
		for i := range closes {
			if i%2 == 0 {
				closes[i] = 100
			} else {
				closes[i] = 101
			}
		}
		assert.InDelta(t, 50, simpleRSI(closes, 14), 1)
	})
}
