package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pumpwatch/internal/logger"
	"pumpwatch/internal/pkg/symbol"
)

// runWatcher 在有限时间窗内周期性重评一条未通过的报警。
// 条件一旦齐备就走与同步路径相同的进场流程；超时或硬失败则放弃。
// handle 在任意退出路径都会释放。
func (s *Service) runWatcher(ctx context.Context, alert Alert, handle *Handle) {
	defer handle.Release()

	sym := symbol.FromCurrency(alert.Currency).Canonical()
	deadline := time.Now().Add(s.watch.Horizon)
	logger.Infof("观察启动 %s，窗口 %s，每 %s 重评", sym, s.watch.Horizon, s.watch.Retry)

	ticker := time.NewTicker(s.watch.Retry)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("观察退出（ctx 取消）%s", sym)
			return
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			logger.Infof("观察窗口耗尽 %s，放弃", sym)
			return
		}
		if s.monitors.Active(sym) {
			logger.Infof("观察退出：%s 监控已在跑", sym)
			return
		}
		if s.cooldown.Remaining(sym, time.Now()) > 0 {
			logger.Infof("观察退出：%s 已进入冷却", sym)
			return
		}

		verdict, err := s.evaluator.Evaluate(ctx, sym, alert.Percent)
		if err != nil {
			if errors.Is(err, ErrInsufficientHistory) || errors.Is(err, context.Canceled) {
				logger.Warnf("观察终止 %s: %v", sym, err)
				return
			}
			logger.Warnf("观察重评失败 %s，下轮再试: %v", sym, err)
			continue
		}
		if !verdict.Pass {
			logger.Debugf("观察中 %s 仍未齐备: %s", sym, verdict.Reason)
			continue
		}

		// 观察位先释放，进场会抢监控位。
		handle.Release()
		res := Result{TraceID: uuid.NewString(), Symbol: sym, Verdict: &verdict}
		out := s.enter(ctx, res)
		if out.Status == StatusOK {
			logger.Infof("观察转进场 %s entry=%.6f", sym, out.EntryPrice)
		} else {
			logger.Warnf("观察转进场失败 %s: %s", sym, out.Reason)
		}
		return
	}
}
