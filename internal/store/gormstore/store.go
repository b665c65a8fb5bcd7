// Package gormstore 基于 sqlite 的交易流水持久化，实现 engine.Journal。
package gormstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
	gormlogger "gorm.io/gorm/logger"

	"pumpwatch/internal/engine"
	"pumpwatch/internal/store/model"
)

type Store struct {
	db *gorm.DB
}

// Open 打开（必要时建表）sqlite 流水库。WAL 模式允许写入与读取并行。
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("trade store: 路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open trade store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&model.TradeModel{}); err != nil {
		return nil, fmt.Errorf("migrate trade store: %w", err)
	}
	return &Store{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) RecordEntry(rec engine.TradeRecord) error {
	raw, err := json.Marshal(rec.EntryRaw)
	if err != nil {
		raw = []byte("{}")
	}
	m := model.TradeModel{
		PositionID: rec.PositionID,
		Exchange:   rec.Exchange,
		Symbol:     rec.Symbol,
		Side:       string(rec.Side),
		EntryPrice: rec.EntryPrice,
		Quantity:   rec.Quantity,
		Leverage:   rec.Leverage,
		TakeProfit: rec.TakeProfit,
		StopLoss:   rec.StopLoss,
		EntryRaw:   datatypes.JSON(raw),
		OpenedAt:   rec.OpenedAt,
	}
	return s.db.Create(&m).Error
}

func (s *Store) MarkBreakEven(positionID string, newStop float64) error {
	return s.db.Model(&model.TradeModel{}).
		Where("position_id = ?", positionID).
		Updates(map[string]any{"break_even": true, "stop_loss": newStop}).Error
}

func (s *Store) MarkClosed(positionID, outcome string, exitPrice float64, closedAt time.Time) error {
	return s.db.Model(&model.TradeModel{}).
		Where("position_id = ?", positionID).
		Updates(map[string]any{
			"outcome":    outcome,
			"exit_price": exitPrice,
			"closed_at":  closedAt,
		}).Error
}

// ListRecent 返回最近 limit 条流水，新的在前。
func (s *Store) ListRecent(limit int) ([]model.TradeModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []model.TradeModel
	err := s.db.Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}
