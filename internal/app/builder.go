package app

import (
	"context"
	"fmt"
	"time"

	pwcfg "pumpwatch/internal/config"
	"pumpwatch/internal/engine"
	"pumpwatch/internal/gateway"
	"pumpwatch/internal/gateway/notifier"
	"pumpwatch/internal/logger"
	"pumpwatch/internal/profile"
	"pumpwatch/internal/scheduler"
	"pumpwatch/internal/store/alertlog"
	"pumpwatch/internal/store/gormstore"
	pumphttp "pumpwatch/internal/transport/http"
	"pumpwatch/internal/types"
)

// build 手工装配全部组件。依赖较少，不值得引入生成式注入。
func build(cfg *pwcfg.Config) (*App, error) {
	client, err := gateway.NewClientFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build exchange client: %w", err)
	}

	profiles, err := profile.NewRegistry(cfg.Evaluator.ProfilesPath)
	if err != nil {
		logger.Warnf("阈值档加载失败（%v），使用内置默认值", err)
		profiles = profile.NewStatic(profile.DefaultThresholds())
	}

	interval := cfg.Evaluator.Interval
	if _, ok := scheduler.ParseIntervalDuration(interval); !ok {
		logger.Warnf("evaluator.interval %q 无法解析，回退 1m", interval)
		interval = "1m"
	}

	evaluator := engine.NewEvaluator(client, profiles, engine.EvaluatorSettings{
		Interval:    interval,
		CandleLimit: cfg.Evaluator.CandleLimit,
		SampleCount: cfg.Evaluator.SampleCount,
		SampleGap:   time.Duration(cfg.Evaluator.SampleGapMS) * time.Millisecond,
		CallTimeout: time.Duration(cfg.Exchange.TimeoutSecs) * time.Second,
	})

	var notify notifier.TextNotifier = notifier.Nop{}
	if cfg.Notify.Telegram.Enabled {
		notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	var journal engine.Journal = engine.NopJournal{}
	var trades *gormstore.Store
	var alerts *alertlog.Store
	if cfg.Store.Enabled {
		trades, err = gormstore.Open(cfg.Store.TradePath)
		if err != nil {
			return nil, fmt.Errorf("open trade store: %w", err)
		}
		journal = trades
		alerts, err = alertlog.New(cfg.Store.AlertLogPath)
		if err != nil {
			return nil, fmt.Errorf("open alert log: %w", err)
		}
	}

	monitor := engine.NewMonitor(client, journal, notify, engine.MonitorSettings{
		PollInterval: time.Duration(cfg.Monitor.PollSeconds) * time.Second,
		BreakEvenPct: cfg.Monitor.BreakEvenPct,
		CallTimeout:  time.Duration(cfg.Exchange.TimeoutSecs) * time.Second,
	})
	cooldown := engine.NewCooldown(time.Duration(cfg.Cooldown.WindowSeconds) * time.Second)

	service := engine.NewService(
		context.Background(),
		client,
		evaluator,
		cooldown,
		monitor,
		journal,
		notify,
		engine.TradeSettings{
			Side:          types.Side(cfg.Trade.Side),
			NotionalUSDT:  cfg.Trade.NotionalUSDT,
			Leverage:      cfg.Trade.Leverage,
			TakeProfitPct: cfg.Trade.TakeProfitPct,
			StopLossPct:   cfg.Trade.StopLossPct,
		},
		engine.WatcherSettings{
			Horizon: time.Duration(cfg.Watcher.HorizonMinutes) * time.Minute,
			Retry:   time.Duration(cfg.Watcher.RetrySeconds) * time.Second,
		},
	)

	server, err := pumphttp.NewServer(pumphttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Service: service,
		Trades:  trades,
		Alerts:  alerts,
	})
	if err != nil {
		return nil, fmt.Errorf("build http server: %w", err)
	}

	return &App{
		cfg:     cfg,
		service: service,
		server:  server,
		trades:  trades,
		alerts:  alerts,
	}, nil
}
