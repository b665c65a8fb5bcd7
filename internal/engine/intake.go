package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pumpwatch/internal/gateway/exchange"
	"pumpwatch/internal/gateway/notifier"
	"pumpwatch/internal/logger"
	"pumpwatch/internal/pkg/symbol"
	"pumpwatch/internal/pkg/trading"
	"pumpwatch/internal/types"
)

// 应答状态机：ok 已进场，ignored 终态拒绝，cooldown 冷却中，
// watching 已转入延迟观察，error 上游失败。
const (
	StatusOK       = "ok"
	StatusIgnored  = "ignored"
	StatusCooldown = "cooldown"
	StatusWatching = "watching"
	StatusError    = "error"
)

// Alert 外部报警的规范化输入。Percent 是信号方声称的涨幅。
type Alert struct {
	Currency string
	Percent  float64
}

// Result 一次报警处理的完整结论，HTTP 层原样序列化。
type Result struct {
	Status           string                     `json:"status"`
	Reason           string                     `json:"reason,omitempty"`
	RemainingSeconds int64                      `json:"remaining_seconds,omitempty"`
	TraceID          string                     `json:"trace_id"`
	Symbol           string                     `json:"symbol,omitempty"`
	Side             types.Side                 `json:"side,omitempty"`
	EntryPrice       float64                    `json:"entry_price,omitempty"`
	TPPrice          float64                    `json:"tp_price,omitempty"`
	SLPrice          float64                    `json:"sl_price,omitempty"`
	Quantity         float64                    `json:"quantity,omitempty"`
	EntryAck         map[string]any             `json:"entry_response,omitempty"`
	Positions        []exchange.PositionSnapshot `json:"positions_response,omitempty"`
	Verdict          *Verdict                   `json:"verdict,omitempty"`
}

type TradeSettings struct {
	Side          types.Side
	NotionalUSDT  float64
	Leverage      int
	TakeProfitPct float64
	StopLossPct   float64
}

func (s TradeSettings) withDefaults() TradeSettings {
	out := s
	if out.Side == "" {
		out.Side = types.SideShort
	}
	if out.NotionalUSDT <= 0 {
		out.NotionalUSDT = 40
	}
	if out.Leverage <= 0 {
		out.Leverage = 20
	}
	if out.TakeProfitPct <= 0 {
		out.TakeProfitPct = 5
	}
	if out.StopLossPct <= 0 {
		out.StopLossPct = 2
	}
	return out
}

type WatcherSettings struct {
	Horizon time.Duration
	Retry   time.Duration
}

func (s WatcherSettings) withDefaults() WatcherSettings {
	out := s
	if out.Horizon <= 0 {
		out.Horizon = 45 * time.Minute
	}
	if out.Retry <= 0 {
		out.Retry = time.Minute
	}
	return out
}

// Service 报警处理的入口：冷却闸门、条件评估、下单、派发监控与观察任务。
type Service struct {
	client    exchange.Client
	evaluator *Evaluator
	cooldown  *Cooldown
	monitors  *SymbolGuard
	watchers  *SymbolGuard
	monitor   *Monitor
	journal   Journal
	notify    notifier.TextNotifier
	trade     TradeSettings
	watch     WatcherSettings

	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewService(
	ctx context.Context,
	client exchange.Client,
	evaluator *Evaluator,
	cooldown *Cooldown,
	monitor *Monitor,
	journal Journal,
	notify notifier.TextNotifier,
	trade TradeSettings,
	watch WatcherSettings,
) *Service {
	if ctx == nil {
		ctx = context.Background()
	}
	if journal == nil {
		journal = NopJournal{}
	}
	if notify == nil {
		notify = notifier.Nop{}
	}
	return &Service{
		client:    client,
		evaluator: evaluator,
		cooldown:  cooldown,
		monitors:  NewSymbolGuard("monitor"),
		watchers:  NewSymbolGuard("watcher"),
		monitor:   monitor,
		journal:   journal,
		notify:    notify,
		trade:     trade.withDefaults(),
		watch:     watch.withDefaults(),
		baseCtx:   ctx,
	}
}

// Monitors 导出活动监控句柄，HTTP 层使用。
func (s *Service) Monitors() []HandleInfo { return s.monitors.List() }

// Watchers 导出活动观察句柄。
func (s *Service) Watchers() []HandleInfo { return s.watchers.List() }

// Wait 等待所有后台任务退出，关停时调用。
func (s *Service) Wait() { s.wg.Wait() }

// Handle 处理一条报警并返回终态结论。进场本身同步完成，
// 只有行情监控与延迟观察在后台跑。
func (s *Service) Handle(ctx context.Context, alert Alert) Result {
	res := Result{TraceID: uuid.NewString()}

	if alert.Currency == "" {
		res.Status = StatusIgnored
		res.Reason = "alert missing currency"
		return res
	}
	sym := symbol.FromCurrency(alert.Currency)
	res.Symbol = sym.Canonical()

	logger.Infof("收到报警 %s +%.2f%% trace=%s", res.Symbol, alert.Percent, res.TraceID)

	if s.monitors.Active(res.Symbol) {
		res.Status = StatusIgnored
		res.Reason = ErrMonitorExists.Error()
		return res
	}
	if s.watchers.Active(res.Symbol) {
		res.Status = StatusIgnored
		res.Reason = ErrWatcherExists.Error()
		return res
	}

	if remaining := s.cooldown.Remaining(res.Symbol, time.Now()); remaining > 0 {
		res.Status = StatusCooldown
		res.Reason = fmt.Sprintf("cooldown active, %s remaining", remaining.Round(time.Second))
		res.RemainingSeconds = int64(remaining.Seconds())
		return res
	}

	th := s.evaluator.Thresholds(res.Symbol)
	if alert.Percent < th.MinStrengthPct {
		res.Status = StatusIgnored
		res.Reason = fmt.Sprintf("declared %.2f%% below minimum %.2f%%", alert.Percent, th.MinStrengthPct)
		return res
	}

	verdict, err := s.evaluator.Evaluate(ctx, res.Symbol, alert.Percent)
	if err != nil {
		res.Status = StatusError
		res.Reason = err.Error()
		logger.Errorf("评估失败 %s: %v", res.Symbol, err)
		return res
	}
	res.Verdict = &verdict

	if !verdict.Pass {
		return s.deferToWatcher(res, alert, verdict)
	}
	return s.enter(ctx, res)
}

// deferToWatcher 条件未齐备时转入后台观察。观察位被占则直接忽略。
func (s *Service) deferToWatcher(res Result, alert Alert, verdict Verdict) Result {
	handle, ok := s.watchers.Acquire(res.Symbol)
	if !ok {
		res.Status = StatusIgnored
		res.Reason = ErrWatcherExists.Error()
		return res
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runWatcher(s.baseCtx, alert, handle)
	}()
	res.Status = StatusWatching
	res.Reason = verdict.Reason
	logger.Infof("条件未齐备（%s），%s 转入观察", verdict.Reason, res.Symbol)
	return res
}

// enter 执行进场：取价、算量、抢监控位、下单、派发监控。
// 监控位在下单前抢占，保证同一 symbol 绝不双开。
func (s *Service) enter(ctx context.Context, res Result) Result {
	price, err := s.client.GetPrice(ctx, res.Symbol)
	if err != nil {
		res.Status = StatusError
		res.Reason = fmt.Sprintf("fetch entry price: %v", err)
		return res
	}
	if price <= 0 {
		res.Status = StatusError
		res.Reason = fmt.Sprintf("invalid entry price %.6f", price)
		return res
	}

	qty := trading.QuantityForNotional(s.trade.NotionalUSDT, price)
	tp, sl := s.bracket(price)

	handle, ok := s.monitors.Acquire(res.Symbol)
	if !ok {
		res.Status = StatusIgnored
		res.Reason = ErrMonitorExists.Error()
		return res
	}

	orderSide, posSide := orderSides(s.trade.Side)
	ack, err := s.client.PlaceMarketOrder(ctx, exchange.OrderRequest{
		Symbol:       res.Symbol,
		Side:         orderSide,
		PositionSide: posSide,
		Quantity:     qty,
		Leverage:     s.trade.Leverage,
	})
	if err != nil {
		handle.Release()
		res.Status = StatusError
		res.Reason = fmt.Sprintf("place entry order: %v", err)
		logger.Errorf("下单失败 %s: %v", res.Symbol, err)
		return res
	}

	pos := types.NewPosition(uuid.NewString(), s.client.Name(), res.Symbol,
		s.trade.Side, price, qty, tp, sl, s.trade.Leverage)

	s.cooldown.Mark(res.Symbol, time.Now())

	if err := s.journal.RecordEntry(TradeRecord{
		PositionID: pos.ID,
		Exchange:   pos.Exchange,
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		EntryPrice: price,
		Quantity:   qty,
		Leverage:   s.trade.Leverage,
		TakeProfit: tp,
		StopLoss:   sl,
		EntryRaw:   ack.Raw,
		OpenedAt:   pos.OpenedAt,
	}); err != nil {
		logger.Errorf("写流水失败 %s: %v", pos.ID, err)
	}

	if err := s.notify.SendText(fmt.Sprintf("📉 %s 开%s @ %.6f 数量=%.6f tp=%.6f sl=%.6f",
		pos.Symbol, sideLabel(pos.Side), price, qty, tp, sl)); err != nil {
		logger.Warnf("通知发送失败: %v", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.monitor.Run(s.baseCtx, pos, handle)
	}()

	res.Status = StatusOK
	res.Side = pos.Side
	res.EntryPrice = price
	res.TPPrice = tp
	res.SLPrice = sl
	res.Quantity = qty
	res.EntryAck = ack.Raw

	if positions, err := s.client.ListOpenPositions(ctx); err != nil {
		logger.Warnf("查询持仓失败 %s: %v", res.Symbol, err)
	} else {
		res.Positions = positions
	}

	logger.Infof("已进场 %s %s entry=%.6f tp=%.6f sl=%.6f trace=%s",
		res.Symbol, res.Side, price, tp, sl, res.TraceID)
	return res
}

// bracket 按方向与进场价算出止盈止损，精度随价格量级。
func (s *Service) bracket(entry float64) (tp, sl float64) {
	if s.trade.Side == types.SideShort {
		tp = entry * (1 - s.trade.TakeProfitPct/100)
		sl = entry * (1 + s.trade.StopLossPct/100)
	} else {
		tp = entry * (1 + s.trade.TakeProfitPct/100)
		sl = entry * (1 - s.trade.StopLossPct/100)
	}
	return trading.RoundByMagnitude(entry, tp), trading.RoundByMagnitude(entry, sl)
}

func orderSides(side types.Side) (orderSide, positionSide string) {
	if side == types.SideShort {
		return "SELL", "SHORT"
	}
	return "BUY", "LONG"
}

func sideLabel(side types.Side) string {
	if side == types.SideShort {
		return "空"
	}
	return "多"
}
