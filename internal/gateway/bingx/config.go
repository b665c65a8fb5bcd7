package bingx

import (
	"strings"
	"time"
)

type Config struct {
	RESTBaseURL string
	APIKey      string
	APISecret   string
	HTTPTimeout time.Duration

	// Breaker settings for the REST surface.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	out.RESTBaseURL = strings.TrimRight(strings.TrimSpace(out.RESTBaseURL), "/")
	if out.RESTBaseURL == "" {
		out.RESTBaseURL = "https://open-api.bingx.com"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 10 * time.Second
	}
	if out.BreakerThreshold <= 0 {
		out.BreakerThreshold = 5
	}
	if out.BreakerCooldown <= 0 {
		out.BreakerCooldown = 30 * time.Second
	}
	return out
}
