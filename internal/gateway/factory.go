package gateway

import (
	"fmt"
	"os"
	"strings"
	"time"

	pwcfg "pumpwatch/internal/config"
	"pumpwatch/internal/gateway/bingx"
	"pumpwatch/internal/gateway/binance"
	"pumpwatch/internal/gateway/exchange"
)

// NewClientFromConfig 按配置选择交易所实现。API 密钥只从环境变量读取。
func NewClientFromConfig(cfg *pwcfg.Config) (exchange.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	ex := cfg.Exchange
	timeout := time.Duration(ex.TimeoutSecs) * time.Second
	apiKey := os.Getenv(ex.APIKeyEnv)
	apiSecret := os.Getenv(ex.APISecretEnv)
	switch strings.ToLower(strings.TrimSpace(ex.Name)) {
	case "", "bingx":
		return bingx.New(bingx.Config{
			RESTBaseURL: ex.RESTBaseURL,
			APIKey:      apiKey,
			APISecret:   apiSecret,
			HTTPTimeout: timeout,
		}), nil
	case "binance", "binance-futures":
		return binance.New(binance.Config{
			RESTBaseURL: ex.RESTBaseURL,
			APIKey:      apiKey,
			APISecret:   apiSecret,
			HTTPTimeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", ex.Name)
	}
}
