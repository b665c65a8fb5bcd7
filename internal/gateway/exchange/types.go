package exchange

import "time"

// OrderRequest describes a market entry order.
type OrderRequest struct {
	Symbol       string  // canonical, e.g. "BTC-USDT"
	Side         string  // "BUY" or "SELL"
	PositionSide string  // "LONG" or "SHORT"
	Quantity     float64
	Leverage     int
}

// OrderAck is the exchange acknowledgment for a placed order.
type OrderAck struct {
	OrderID string         `json:"order_id"`
	Raw     map[string]any `json:"raw,omitempty"`
}

// CloseAck is the acknowledgment for a close-all command.
type CloseAck struct {
	Raw map[string]any `json:"raw,omitempty"`
}

// PositionSnapshot 交易所侧的持仓快照（只读，用于响应与对账）。
type PositionSnapshot struct {
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Amount     float64   `json:"amount"`
	EntryPrice float64   `json:"entry_price"`
	Leverage   float64   `json:"leverage,omitempty"`
	MarkPrice  float64   `json:"mark_price,omitempty"`
	PnL        float64   `json:"unrealized_pnl,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}
