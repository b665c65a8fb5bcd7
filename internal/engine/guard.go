package engine

import (
	"sync"
	"time"
)

// SymbolGuard 每个 symbol 只允许一个任务（监控或观察）。
// Acquire 的判定与登记在同一把锁内完成，避免两个任务抢到同一 symbol。
type SymbolGuard struct {
	kind string

	mu     sync.Mutex
	active map[string]*Handle
}

// Handle 已登记任务的句柄，释放必须走 Release（任意退出路径）。
type Handle struct {
	Symbol    string
	Kind      string
	StartedAt time.Time

	once  sync.Once
	guard *SymbolGuard
}

func NewSymbolGuard(kind string) *SymbolGuard {
	return &SymbolGuard{
		kind:   kind,
		active: make(map[string]*Handle),
	}
}

// Acquire 原子地检查并登记。已被占用时返回 (nil, false)。
func (g *SymbolGuard) Acquire(symbol string) (*Handle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.active[symbol]; exists {
		return nil, false
	}
	h := &Handle{
		Symbol:    symbol,
		Kind:      g.kind,
		StartedAt: time.Now(),
		guard:     g,
	}
	g.active[symbol] = h
	return h, true
}

// Release 幂等释放；重复调用无害。
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.guard.mu.Lock()
		if h.guard.active[h.Symbol] == h {
			delete(h.guard.active, h.Symbol)
		}
		h.guard.mu.Unlock()
	})
}

// Active 报告 symbol 是否有任务在跑。
func (g *SymbolGuard) Active(symbol string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[symbol]
	return ok
}

// HandleInfo 供 HTTP 层导出的句柄视图。
type HandleInfo struct {
	Symbol    string    `json:"symbol"`
	Kind      string    `json:"kind"`
	StartedAt time.Time `json:"started_at"`
}

func (g *SymbolGuard) List() []HandleInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]HandleInfo, 0, len(g.active))
	for _, h := range g.active {
		out = append(out, HandleInfo{Symbol: h.Symbol, Kind: h.Kind, StartedAt: h.StartedAt})
	}
	return out
}

func (g *SymbolGuard) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
