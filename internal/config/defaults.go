package config

import "strings"

// 默认值常量
const (
	defaultAppEnv       = "dev"
	defaultAppLogLevel  = "info"
	defaultAppHTTPAddr  = ":8080"
	defaultAppLogPath   = "data/logs/pumpwatch.log"
	defaultExchange     = "bingx"
	defaultBingXREST    = "https://open-api.bingx.com"
	defaultAPIKeyEnv    = "BINGX_API_KEY"
	defaultAPISecretEnv = "BINGX_API_SECRET"
	defaultHTTPTimeout  = 10

	defaultTradeSide     = "short"
	defaultTradeNotional = 40.0
	defaultTradeLeverage = 20
	defaultTradeTPPct    = 5.0
	defaultTradeSLPct    = 2.0

	defaultEvalInterval    = "1m"
	defaultEvalCandleLimit = 50
	defaultEvalSamples     = 3
	defaultEvalSampleGapMS = 400
	defaultProfilesPath    = "configs/profiles.yaml"

	defaultMonitorPollSecs = 1
	defaultBreakEvenPct    = 2.5

	defaultWatcherHorizonMin = 45
	defaultWatcherRetrySecs  = 60

	defaultCooldownSecs = 7200

	defaultTradeStorePath = "data/db/trades.db"
	defaultAlertLogPath   = "data/db/alerts.db"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Trade.applyDefaults(keys)
	c.Evaluator.applyDefaults(keys)
	c.Monitor.applyDefaults(keys)
	c.Watcher.applyDefaults(keys)
	c.Cooldown.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("exchange.name", &e.Name, defaultExchange),
		stringFieldDefault("exchange.api_key_env", &e.APIKeyEnv, defaultAPIKeyEnv),
		stringFieldDefault("exchange.api_secret_env", &e.APISecretEnv, defaultAPISecretEnv),
		fieldDefault{
			key:   "exchange.timeout_seconds",
			need:  func() bool { return e.TimeoutSecs <= 0 },
			apply: func() { e.TimeoutSecs = defaultHTTPTimeout },
		},
	)
	if strings.TrimSpace(e.RESTBaseURL) == "" && strings.EqualFold(e.Name, "bingx") {
		e.RESTBaseURL = defaultBingXREST
	}
}

func (t *TradeConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trade.side", &t.Side, defaultTradeSide),
		fieldDefault{
			key:   "trade.notional_usdt",
			need:  func() bool { return t.NotionalUSDT <= 0 },
			apply: func() { t.NotionalUSDT = defaultTradeNotional },
		},
		fieldDefault{
			key:   "trade.leverage",
			need:  func() bool { return t.Leverage <= 0 },
			apply: func() { t.Leverage = defaultTradeLeverage },
		},
		fieldDefault{
			key:   "trade.take_profit_pct",
			need:  func() bool { return t.TakeProfitPct <= 0 },
			apply: func() { t.TakeProfitPct = defaultTradeTPPct },
		},
		fieldDefault{
			key:   "trade.stop_loss_pct",
			need:  func() bool { return t.StopLossPct <= 0 },
			apply: func() { t.StopLossPct = defaultTradeSLPct },
		},
	)
}

func (e *EvaluatorConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("evaluator.interval", &e.Interval, defaultEvalInterval),
		stringFieldDefault("evaluator.profiles_path", &e.ProfilesPath, defaultProfilesPath),
		fieldDefault{
			key:   "evaluator.candle_limit",
			need:  func() bool { return e.CandleLimit <= 0 },
			apply: func() { e.CandleLimit = defaultEvalCandleLimit },
		},
		fieldDefault{
			key:   "evaluator.sample_count",
			need:  func() bool { return e.SampleCount <= 0 },
			apply: func() { e.SampleCount = defaultEvalSamples },
		},
		fieldDefault{
			key:   "evaluator.sample_gap_ms",
			need:  func() bool { return e.SampleGapMS <= 0 },
			apply: func() { e.SampleGapMS = defaultEvalSampleGapMS },
		},
	)
}

func (m *MonitorConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "monitor.poll_seconds",
			need:  func() bool { return m.PollSeconds <= 0 },
			apply: func() { m.PollSeconds = defaultMonitorPollSecs },
		},
		fieldDefault{
			key:   "monitor.break_even_pct",
			need:  func() bool { return m.BreakEvenPct <= 0 },
			apply: func() { m.BreakEvenPct = defaultBreakEvenPct },
		},
	)
}

func (w *WatcherConfig) applyDefaults(keys keySet) {
	if w == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "watcher.horizon_minutes",
			need:  func() bool { return w.HorizonMinutes <= 0 },
			apply: func() { w.HorizonMinutes = defaultWatcherHorizonMin },
		},
		fieldDefault{
			key:   "watcher.retry_seconds",
			need:  func() bool { return w.RetrySeconds <= 0 },
			apply: func() { w.RetrySeconds = defaultWatcherRetrySecs },
		},
	)
}

func (c *CooldownConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "cooldown.window_seconds",
			need:  func() bool { return c.WindowSeconds <= 0 },
			apply: func() { c.WindowSeconds = defaultCooldownSecs },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("store.enabled", &s.Enabled, true),
		stringFieldDefault("store.trade_path", &s.TradePath, defaultTradeStorePath),
		stringFieldDefault("store.alert_log_path", &s.AlertLogPath, defaultAlertLogPath),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
