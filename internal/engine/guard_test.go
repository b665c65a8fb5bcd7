package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolGuardSingleAcquire(t *testing.T) {
	g := NewSymbolGuard("monitor")

	var acquired int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.Acquire("ABC-USDT"); ok {
				atomic.AddInt64(&acquired, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), acquired, "并发抢占只能有一个成功")
	assert.True(t, g.Active("ABC-USDT"))
	assert.Equal(t, 1, g.Count())
}

func TestSymbolGuardReleaseIdempotent(t *testing.T) {
	g := NewSymbolGuard("watcher")
	h, ok := g.Acquire("ABC-USDT")
	assert.True(t, ok)

	h.Release()
	h.Release()
	assert.False(t, g.Active("ABC-USDT"))

	// 释放后可以重新登记
	h2, ok := g.Acquire("ABC-USDT")
	assert.True(t, ok)
	assert.NotNil(t, h2)

	// 旧句柄的再次释放不能影响新句柄
	h.Release()
	assert.True(t, g.Active("ABC-USDT"))
}

func TestSymbolGuardList(t *testing.T) {
	g := NewSymbolGuard("monitor")
	g.Acquire("ABC-USDT")
	g.Acquire("XYZ-USDT")
	infos := g.List()
	assert.Len(t, infos, 2)
	for _, info := range infos {
		assert.Equal(t, "monitor", info.Kind)
	}
}
