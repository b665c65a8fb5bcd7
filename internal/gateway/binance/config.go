package binance

import (
	"strings"
	"time"
)

type Config struct {
	RESTBaseURL string
	APIKey      string
	APISecret   string
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	out.RESTBaseURL = strings.TrimRight(strings.TrimSpace(out.RESTBaseURL), "/")
	if out.RESTBaseURL == "" {
		out.RESTBaseURL = "https://fapi.binance.com"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 10 * time.Second
	}
	return out
}
