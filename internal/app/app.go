// Package app 负责应用级编排：加载配置→初始化依赖→启动 HTTP 与后台任务。
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	pwcfg "pumpwatch/internal/config"
	"pumpwatch/internal/engine"
	"pumpwatch/internal/logger"
	"pumpwatch/internal/store/alertlog"
	"pumpwatch/internal/store/gormstore"
	pumphttp "pumpwatch/internal/transport/http"
)

// App 持有全部运行期组件。所有组件经 builder 装配，App 只管生命周期。
type App struct {
	cfg     *pwcfg.Config
	service *engine.Service
	server  *pumphttp.Server
	trades  *gormstore.Store
	alerts  *alertlog.Store

	cancel context.CancelFunc
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *pwcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg)
}

// Run 启动 HTTP 服务并阻塞到 ctx 取消或组件出错。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	logger.Infof("pumpwatch 启动：exchange=%s side=%s notional=%.0fUSDT lev=%dx addr=%s",
		a.cfg.Exchange.Name, a.cfg.Trade.Side, a.cfg.Trade.NotionalUSDT,
		a.cfg.Trade.Leverage, a.server.Addr())

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	err := group.Wait()
	a.Close()
	return err
}

// Close 等待后台任务退出并关闭存储。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.service != nil {
		a.service.Wait()
	}
	if a.trades != nil {
		if err := a.trades.Close(); err != nil {
			logger.Warnf("关闭交易流水库失败: %v", err)
		}
	}
	if a.alerts != nil {
		if err := a.alerts.Close(); err != nil {
			logger.Warnf("关闭报警记录库失败: %v", err)
		}
	}
}

// Service 暴露报警处理服务，测试与回放用。
func (a *App) Service() *engine.Service {
	if a == nil {
		return nil
	}
	return a.service
}
