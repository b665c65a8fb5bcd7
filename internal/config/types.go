package config

import "strings"

// Config 是 pumpwatch 的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	Exchange  ExchangeConfig  `toml:"exchange"`
	Trade     TradeConfig     `toml:"trade"`
	Evaluator EvaluatorConfig `toml:"evaluator"`
	Monitor   MonitorConfig   `toml:"monitor"`
	Watcher   WatcherConfig   `toml:"watcher"`
	Cooldown  CooldownConfig  `toml:"cooldown"`
	Store     StoreConfig     `toml:"store"`
	Notify    NotifyConfig    `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// ExchangeConfig 交易所接入。密钥只从环境变量读取，配置里存变量名。
type ExchangeConfig struct {
	Name         string `toml:"name"` // "bingx" | "binance"
	RESTBaseURL  string `toml:"rest_base_url"`
	APIKeyEnv    string `toml:"api_key_env"`
	APISecretEnv string `toml:"api_secret_env"`
	TimeoutSecs  int    `toml:"timeout_seconds"`
}

type TradeConfig struct {
	Side          string  `toml:"side"` // "short" | "long"
	NotionalUSDT  float64 `toml:"notional_usdt"`
	Leverage      int     `toml:"leverage"`
	TakeProfitPct float64 `toml:"take_profit_pct"`
	StopLossPct   float64 `toml:"stop_loss_pct"`
}

type EvaluatorConfig struct {
	Interval     string `toml:"interval"`
	CandleLimit  int    `toml:"candle_limit"`
	SampleCount  int    `toml:"sample_count"`
	SampleGapMS  int    `toml:"sample_gap_ms"`
	ProfilesPath string `toml:"profiles_path"`
}

type MonitorConfig struct {
	PollSeconds  int     `toml:"poll_seconds"`
	BreakEvenPct float64 `toml:"break_even_pct"`
}

type WatcherConfig struct {
	HorizonMinutes int `toml:"horizon_minutes"`
	RetrySeconds   int `toml:"retry_seconds"`
}

type CooldownConfig struct {
	WindowSeconds int `toml:"window_seconds"`
}

type StoreConfig struct {
	Enabled      bool   `toml:"enabled"`
	TradePath    string `toml:"trade_path"`
	AlertLogPath string `toml:"alert_log_path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
