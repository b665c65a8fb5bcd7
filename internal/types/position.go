package types

import (
	"sync"
	"time"
)

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// State 仓位生命周期：Pending（已提交）→ Open（监控中）→
// BreakEvenArmed（可选）→ Closed（终态）。
type State string

const (
	StatePending        State = "pending"
	StateOpen           State = "open"
	StateBreakEvenArmed State = "be_armed"
	StateClosed         State = "closed"
)

// Position 一笔由监控任务独占修改的持仓。其它协程只能读快照。
type Position struct {
	ID         string
	Exchange   string
	Symbol     string
	Side       Side
	EntryPrice float64
	Quantity   float64
	Leverage   int
	OpenedAt   time.Time

	mu         sync.Mutex
	takeProfit float64
	stopLoss   float64
	beArmed    bool
	state      State
}

func NewPosition(id, exchange, sym string, side Side, entry, qty, tp, sl float64, leverage int) *Position {
	return &Position{
		ID:         id,
		Exchange:   exchange,
		Symbol:     sym,
		Side:       side,
		EntryPrice: entry,
		Quantity:   qty,
		Leverage:   leverage,
		OpenedAt:   time.Now(),
		takeProfit: tp,
		stopLoss:   sl,
		state:      StatePending,
	}
}

func (p *Position) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Position) MarkOpen() {
	p.mu.Lock()
	if p.state == StatePending {
		p.state = StateOpen
	}
	p.mu.Unlock()
}

func (p *Position) MarkClosed() {
	p.mu.Lock()
	p.state = StateClosed
	p.mu.Unlock()
}

func (p *Position) TakeProfit() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.takeProfit
}

func (p *Position) StopLoss() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLoss
}

func (p *Position) BreakEvenArmed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beArmed
}

// ArmBreakEven 把止损推到开仓价。一次性且不可逆：重复调用返回 false，
// 且止损只会向开仓价方向移动，永不后退。
func (p *Position) ArmBreakEven() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.beArmed || p.state == StateClosed {
		return false
	}
	switch p.Side {
	case SideShort:
		if p.EntryPrice < p.stopLoss {
			p.stopLoss = p.EntryPrice
		}
	case SideLong:
		if p.EntryPrice > p.stopLoss {
			p.stopLoss = p.EntryPrice
		}
	}
	p.beArmed = true
	p.state = StateBreakEvenArmed
	return true
}

// Favorable 报告从开仓价算起的有利涨跌幅（百分比，>=0 表示浮盈方向）。
func (p *Position) Favorable(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	move := (price - p.EntryPrice) / p.EntryPrice * 100
	if p.Side == SideShort {
		return -move
	}
	return move
}

// TPCrossed 空头在价格跌破 tp 时触发，多头反之。
func (p *Position) TPCrossed(price float64) bool {
	tp := p.TakeProfit()
	if p.Side == SideShort {
		return price <= tp
	}
	return price >= tp
}

// SLCrossed 空头在价格升破 sl（可能已被推到开仓价）时触发，多头反之。
func (p *Position) SLCrossed(price float64) bool {
	sl := p.StopLoss()
	if p.Side == SideShort {
		return price >= sl
	}
	return price <= sl
}

// Snapshot 供 HTTP 层导出的只读视图。
type PositionSnapshot struct {
	ID             string    `json:"id"`
	Exchange       string    `json:"exchange"`
	Symbol         string    `json:"symbol"`
	Side           Side      `json:"side"`
	EntryPrice     float64   `json:"entry_price"`
	Quantity       float64   `json:"quantity"`
	Leverage       int       `json:"leverage,omitempty"`
	TakeProfit     float64   `json:"tp_price"`
	StopLoss       float64   `json:"sl_price"`
	BreakEvenArmed bool      `json:"break_even_armed"`
	State          State     `json:"state"`
	OpenedAt       time.Time `json:"opened_at"`
}

func (p *Position) Snapshot() PositionSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PositionSnapshot{
		ID:             p.ID,
		Exchange:       p.Exchange,
		Symbol:         p.Symbol,
		Side:           p.Side,
		EntryPrice:     p.EntryPrice,
		Quantity:       p.Quantity,
		Leverage:       p.Leverage,
		TakeProfit:     p.takeProfit,
		StopLoss:       p.stopLoss,
		BreakEvenArmed: p.beArmed,
		State:          p.state,
		OpenedAt:       p.OpenedAt,
	}
}
