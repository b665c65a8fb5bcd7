package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if err := c.Trade.validate(); err != nil {
		return err
	}
	if err := c.Monitor.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (e *ExchangeConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(e.Name)) {
	case "bingx", "binance":
	default:
		return fmt.Errorf("exchange.name must be bingx or binance, got %q", e.Name)
	}
	if strings.TrimSpace(e.APIKeyEnv) == "" {
		return fmt.Errorf("exchange.api_key_env cannot be empty")
	}
	if strings.TrimSpace(e.APISecretEnv) == "" {
		return fmt.Errorf("exchange.api_secret_env cannot be empty")
	}
	return nil
}

func (t *TradeConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(t.Side)) {
	case "short", "long":
	default:
		return fmt.Errorf("trade.side must be short or long, got %q", t.Side)
	}
	if t.TakeProfitPct >= 100 {
		return fmt.Errorf("trade.take_profit_pct must be below 100")
	}
	if t.StopLossPct >= 100 {
		return fmt.Errorf("trade.stop_loss_pct must be below 100")
	}
	return nil
}

func (m *MonitorConfig) validate() error {
	if m.BreakEvenPct >= 100 {
		return fmt.Errorf("monitor.break_even_pct must be below 100")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if tg.Enabled {
		if strings.TrimSpace(tg.BotToken) == "" {
			return fmt.Errorf("notify.telegram.bot_token cannot be empty when enabled")
		}
		if strings.TrimSpace(tg.ChatID) == "" {
			return fmt.Errorf("notify.telegram.chat_id cannot be empty when enabled")
		}
	}
	return nil
}
