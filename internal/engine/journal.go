package engine

import (
	"time"

	"pumpwatch/internal/types"
)

// TradeRecord 一笔交易写入流水的数据。EntryRaw 保留交易所原始应答。
type TradeRecord struct {
	PositionID string
	Exchange   string
	Symbol     string
	Side       types.Side
	EntryPrice float64
	Quantity   float64
	Leverage   int
	TakeProfit float64
	StopLoss   float64
	EntryRaw   map[string]any
	OpenedAt   time.Time
}

// Journal 交易流水。实现不得阻塞交易路径太久，失败只记日志。
type Journal interface {
	RecordEntry(rec TradeRecord) error
	MarkBreakEven(positionID string, newStop float64) error
	MarkClosed(positionID, outcome string, exitPrice float64, closedAt time.Time) error
}

// NopJournal 测试与禁用持久化时使用。
type NopJournal struct{}

func (NopJournal) RecordEntry(TradeRecord) error                       { return nil }
func (NopJournal) MarkBreakEven(string, float64) error                 { return nil }
func (NopJournal) MarkClosed(string, string, float64, time.Time) error { return nil }
