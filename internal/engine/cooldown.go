package engine

import (
	"sync"
	"time"
)

// Cooldown 记录每个 symbol 最近一次触发时间，窗口内拒绝再次进场。
// 多个 Intake/Watcher 协程并发读写，锁内只做 map 操作。
type Cooldown struct {
	window time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   make(map[string]time.Time),
	}
}

func (c *Cooldown) Window() time.Duration { return c.window }

// Remaining 返回 symbol 距离冷却结束还剩多久，0 表示不在冷却期。
func (c *Cooldown) Remaining(symbol string, now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.last[symbol]
	if !ok {
		return 0
	}
	elapsed := now.Sub(last)
	if elapsed >= c.window {
		return 0
	}
	return c.window - elapsed
}

// Mark 登记一次触发。
func (c *Cooldown) Mark(symbol string, now time.Time) {
	c.mu.Lock()
	c.last[symbol] = now
	c.mu.Unlock()
}
