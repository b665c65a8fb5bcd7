package model

import (
	"time"

	"gorm.io/datatypes"
)

// TradeModel 交易流水表。EntryRaw 保留交易所下单原始应答，便于事后对账。
type TradeModel struct {
	ID         uint   `gorm:"primaryKey"`
	PositionID string `gorm:"uniqueIndex;size:64"`
	Exchange   string `gorm:"size:32"`
	Symbol     string `gorm:"index;size:32"`
	Side       string `gorm:"size:8"`
	EntryPrice float64
	Quantity   float64
	Leverage   int
	TakeProfit float64
	StopLoss   float64
	BreakEven  bool
	Outcome    string `gorm:"size:16"`
	ExitPrice  float64
	EntryRaw   datatypes.JSON
	OpenedAt   time.Time
	ClosedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (TradeModel) TableName() string { return "trades" }
