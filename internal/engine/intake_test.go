package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pumpwatch/internal/gateway/exchange"
	"pumpwatch/internal/types"
)

func newTestService(ctx context.Context, client *MockExchange, watch WatcherSettings) *Service {
	evaluator := NewEvaluator(client, nil, testSettings())
	monitor := NewMonitor(client, nil, nil, MonitorSettings{
		PollInterval: time.Hour, // 测试里不让监控轮询抢 mock 调用
		BreakEvenPct: 2.5,
		CallTimeout:  time.Second,
	})
	return NewService(ctx, client, evaluator, NewCooldown(2*time.Hour), monitor,
		nil, nil, TradeSettings{}, watch)
}

func TestHandleEntersShortPosition(t *testing.T) {
	client := new(MockExchange)
	candles := pumpCandles(20, 6, 30)
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(candles, nil)
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(100.3, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(100.2, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(100.1, nil).Once()
	client.On("GetPrice", mock.Anything, "ABC-USDT").Return(100.0, nil).Once() // 进场价
	client.On("PlaceMarketOrder", mock.Anything, mock.MatchedBy(func(req exchange.OrderRequest) bool {
		return req.Symbol == "ABC-USDT" && req.Side == "SELL" &&
			req.PositionSide == "SHORT" && req.Leverage == 20
	})).Return(&exchange.OrderAck{OrderID: "42", Raw: map[string]any{"orderId": "42"}}, nil).Once()
	client.On("ListOpenPositions", mock.Anything).Return([]exchange.PositionSnapshot{
		{Symbol: "ABC-USDT", Side: "short", Amount: 0.4, EntryPrice: 100},
	}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	svc := newTestService(ctx, client, WatcherSettings{})

	res := svc.Handle(context.Background(), Alert{Currency: "abc", Percent: 6})

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "ABC-USDT", res.Symbol)
	assert.Equal(t, types.SideShort, res.Side)
	assert.Equal(t, 100.0, res.EntryPrice)
	assert.Equal(t, 95.0, res.TPPrice, "空单止盈在进场价下方")
	assert.Equal(t, 102.0, res.SLPrice, "空单止损在进场价上方")
	assert.InDelta(t, 0.4, res.Quantity, 1e-9)
	assert.NotEmpty(t, res.TraceID)
	assert.Equal(t, "42", res.EntryAck["orderId"])
	assert.Len(t, res.Positions, 1)

	monitors := svc.Monitors()
	assert.Len(t, monitors, 1)
	assert.Equal(t, "ABC-USDT", monitors[0].Symbol)

	// 进场后立即进入冷却：同 symbol 的下一条报警被挡
	res2 := svc.Handle(context.Background(), Alert{Currency: "abc", Percent: 6})
	assert.Equal(t, StatusIgnored, res2.Status)

	cancel()
	svc.Wait()
	client.AssertExpectations(t)
}

func TestHandleBelowMinStrengthIsTerminal(t *testing.T) {
	client := new(MockExchange)
	svc := newTestService(context.Background(), client, WatcherSettings{})

	res := svc.Handle(context.Background(), Alert{Currency: "abc", Percent: 2})

	assert.Equal(t, StatusIgnored, res.Status)
	assert.Contains(t, res.Reason, "below minimum")
	assert.Empty(t, svc.Watchers(), "低于最小强度不进入观察")
	assert.Empty(t, svc.Monitors())
	// 没有任何交易所调用，也不标记冷却
	client.AssertNotCalled(t, "GetCandles", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	res2 := svc.Handle(context.Background(), Alert{Currency: "abc", Percent: 2})
	assert.Equal(t, StatusIgnored, res2.Status, "忽略不触发冷却")
	assert.Contains(t, res2.Reason, "below minimum")
}

func TestHandleCooldownGate(t *testing.T) {
	client := new(MockExchange)
	svc := newTestService(context.Background(), client, WatcherSettings{})
	svc.cooldown.Mark("ABC-USDT", time.Now())

	res := svc.Handle(context.Background(), Alert{Currency: "abc", Percent: 6})

	assert.Equal(t, StatusCooldown, res.Status)
	assert.Greater(t, res.RemainingSeconds, int64(0))
	client.AssertNotCalled(t, "GetCandles", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleDefersToWatcher(t *testing.T) {
	client := new(MockExchange)
	// 放量不足：评估失败但非终态，应转观察
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(pumpCandles(20, 6, 10), nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc := newTestService(ctx, client, WatcherSettings{Horizon: time.Hour, Retry: time.Hour})

	res := svc.Handle(context.Background(), Alert{Currency: "abc", Percent: 6})

	assert.Equal(t, StatusWatching, res.Status)
	assert.Equal(t, "no volume spike", res.Reason)
	assert.Len(t, svc.Watchers(), 1)

	// 观察期内的重复报警被挡
	res2 := svc.Handle(context.Background(), Alert{Currency: "abc", Percent: 6})
	assert.Equal(t, StatusIgnored, res2.Status)
	assert.Equal(t, ErrWatcherExists.Error(), res2.Reason)

	cancel()
	svc.Wait()
	assert.Empty(t, svc.Watchers(), "观察退出必须释放占位")
}

func TestHandleEvaluationErrorIsTerminal(t *testing.T) {
	client := new(MockExchange)
	client.On("GetCandles", mock.Anything, "ABC-USDT", "1m", 50).Return(pumpCandles(5, 6, 30), nil)

	svc := newTestService(context.Background(), client, WatcherSettings{})
	res := svc.Handle(context.Background(), Alert{Currency: "abc", Percent: 6})

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Reason, "insufficient history")
	assert.Empty(t, svc.Watchers(), "硬失败不转观察")
}

func TestHandleMissingCurrency(t *testing.T) {
	client := new(MockExchange)
	svc := newTestService(context.Background(), client, WatcherSettings{})

	res := svc.Handle(context.Background(), Alert{Percent: 6})
	assert.Equal(t, StatusIgnored, res.Status)
	assert.Contains(t, res.Reason, "missing currency")
}

func TestSymbolNormalization(t *testing.T) {
	client := new(MockExchange)
	svc := newTestService(context.Background(), client, WatcherSettings{})
	svc.cooldown.Mark("ABC-USDT", time.Now())

	// 大小写与报文形态都归一到同一个冷却键上
	for _, currency := range []string{"abc", "ABC", "Abc"} {
		res := svc.Handle(context.Background(), Alert{Currency: currency, Percent: 6})
		assert.Equal(t, StatusCooldown, res.Status, "currency=%s", currency)
		assert.Equal(t, "ABC-USDT", res.Symbol)
	}
}
