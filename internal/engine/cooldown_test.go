package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownRemaining(t *testing.T) {
	c := NewCooldown(2 * time.Hour)
	now := time.Now()

	assert.Zero(t, c.Remaining("ABC-USDT", now), "未触发过的 symbol 不在冷却期")

	c.Mark("ABC-USDT", now)
	assert.Equal(t, 2*time.Hour, c.Remaining("ABC-USDT", now))
	assert.Equal(t, time.Hour, c.Remaining("ABC-USDT", now.Add(time.Hour)))
	assert.Zero(t, c.Remaining("ABC-USDT", now.Add(2*time.Hour)))
	assert.Zero(t, c.Remaining("ABC-USDT", now.Add(3*time.Hour)))

	// 各 symbol 独立计时
	assert.Zero(t, c.Remaining("XYZ-USDT", now))
}

func TestCooldownRemark(t *testing.T) {
	c := NewCooldown(time.Hour)
	now := time.Now()
	c.Mark("ABC-USDT", now)
	c.Mark("ABC-USDT", now.Add(30*time.Minute))
	assert.Equal(t, time.Hour, c.Remaining("ABC-USDT", now.Add(30*time.Minute)))
}
