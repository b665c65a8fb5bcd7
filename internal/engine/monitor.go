package engine

import (
	"context"
	"fmt"
	"time"

	"pumpwatch/internal/gateway/exchange"
	"pumpwatch/internal/gateway/notifier"
	"pumpwatch/internal/logger"
	"pumpwatch/internal/types"
)

// 平仓结果写入流水的枚举值。
const (
	OutcomeTakeProfit = "take_profit"
	OutcomeStopLoss   = "stop_loss"
	OutcomeCanceled   = "canceled"
)

type MonitorSettings struct {
	PollInterval time.Duration
	BreakEvenPct float64
	CallTimeout  time.Duration
}

func (s MonitorSettings) withDefaults() MonitorSettings {
	out := s
	if out.PollInterval <= 0 {
		out.PollInterval = time.Second
	}
	if out.BreakEvenPct <= 0 {
		out.BreakEvenPct = 2.5
	}
	if out.CallTimeout <= 0 {
		out.CallTimeout = 10 * time.Second
	}
	return out
}

// Monitor 盯一笔持仓直到止盈或止损。每个 symbol 至多一个实例，
// 由 SymbolGuard 保证。单次行情失败只重试，不退出。
type Monitor struct {
	client   exchange.Client
	journal  Journal
	notify   notifier.TextNotifier
	settings MonitorSettings
}

func NewMonitor(client exchange.Client, journal Journal, notify notifier.TextNotifier, settings MonitorSettings) *Monitor {
	if journal == nil {
		journal = NopJournal{}
	}
	if notify == nil {
		notify = notifier.Nop{}
	}
	return &Monitor{
		client:   client,
		journal:  journal,
		notify:   notify,
		settings: settings.withDefaults(),
	}
}

// Run 阻塞直到仓位关闭或 ctx 取消。handle 在任意退出路径都会释放。
func (m *Monitor) Run(ctx context.Context, pos *types.Position, handle *Handle) {
	defer handle.Release()

	pos.MarkOpen()
	logger.Infof("监控启动 %s %s entry=%.6f tp=%.6f sl=%.6f",
		pos.Symbol, pos.Side, pos.EntryPrice, pos.TakeProfit(), pos.StopLoss())

	ticker := time.NewTicker(m.settings.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// 进程退出不平仓，仓位留在交易所，只记录状态。
			logger.Warnf("监控退出（ctx 取消），%s 仓位保留在交易所", pos.Symbol)
			if err := m.journal.MarkClosed(pos.ID, OutcomeCanceled, 0, time.Now()); err != nil {
				logger.Errorf("写流水失败 %s: %v", pos.ID, err)
			}
			pos.MarkClosed()
			return
		case <-ticker.C:
		}

		price, err := m.fetchPrice(ctx, pos.Symbol)
		if err != nil {
			logger.Warnf("取价失败 %s，下个周期重试: %v", pos.Symbol, err)
			continue
		}

		if !pos.BreakEvenArmed() && pos.Favorable(price) >= m.settings.BreakEvenPct {
			if pos.ArmBreakEven() {
				logger.Infof("保本位已挂 %s：止损推至开仓价 %.6f", pos.Symbol, pos.StopLoss())
				if err := m.journal.MarkBreakEven(pos.ID, pos.StopLoss()); err != nil {
					logger.Errorf("写流水失败 %s: %v", pos.ID, err)
				}
				m.sendText(fmt.Sprintf("🔒 %s 保本位已挂，止损=%.6f", pos.Symbol, pos.StopLoss()))
			}
		}

		switch {
		case pos.TPCrossed(price):
			m.close(ctx, pos, OutcomeTakeProfit, price)
			return
		case pos.SLCrossed(price):
			m.close(ctx, pos, OutcomeStopLoss, price)
			return
		}
	}
}

func (m *Monitor) fetchPrice(ctx context.Context, symbol string) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.settings.CallTimeout)
	defer cancel()
	return m.client.GetPrice(callCtx, symbol)
}

// close 平仓恰好发起一次。失败时对照交易所持仓核对一次，
// 无论结果如何都转入 Closed，避免同一仓位被反复平。
func (m *Monitor) close(ctx context.Context, pos *types.Position, outcome string, price float64) {
	callCtx, cancel := context.WithTimeout(ctx, m.settings.CallTimeout)
	ack, err := m.client.ClosePosition(callCtx, pos.Symbol)
	cancel()

	if err != nil {
		logger.Errorf("平仓请求失败 %s（%s @ %.6f）: %v", pos.Symbol, outcome, price, err)
		m.reconcile(ctx, pos)
		m.sendText(fmt.Sprintf("⚠️ %s 平仓请求失败，请人工核对: %v", pos.Symbol, err))
	} else {
		logger.Infof("已平仓 %s %s @ %.6f ack=%v", pos.Symbol, outcome, price, ack.Raw)
		m.sendText(fmt.Sprintf("✅ %s 已平仓（%s）@ %.6f", pos.Symbol, outcome, price))
	}

	if err := m.journal.MarkClosed(pos.ID, outcome, price, time.Now()); err != nil {
		logger.Errorf("写流水失败 %s: %v", pos.ID, err)
	}
	pos.MarkClosed()
}

// reconcile 平仓失败后向交易所核对一次真实持仓，仅用于日志与告警。
func (m *Monitor) reconcile(ctx context.Context, pos *types.Position) {
	callCtx, cancel := context.WithTimeout(ctx, m.settings.CallTimeout)
	defer cancel()
	positions, err := m.client.ListOpenPositions(callCtx)
	if err != nil {
		logger.Errorf("持仓核对失败 %s: %v", pos.Symbol, err)
		return
	}
	for _, p := range positions {
		if p.Symbol == pos.Symbol && p.Amount != 0 {
			logger.Warnf("交易所仍有 %s 持仓 amount=%.6f entry=%.6f，需人工处理",
				p.Symbol, p.Amount, p.EntryPrice)
			return
		}
	}
	logger.Infof("核对完成：交易所已无 %s 持仓", pos.Symbol)
}

func (m *Monitor) sendText(text string) {
	if err := m.notify.SendText(text); err != nil {
		logger.Warnf("通知发送失败: %v", err)
	}
}
