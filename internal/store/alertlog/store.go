// Package alertlog 记录每条报警的处理结论，方便后续排查信号质量。
package alertlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"pumpwatch/internal/engine"
)

// Record 一条报警处理记录。Verdict 持久化为 JSON 文本。
type Record struct {
	ID       int64   `json:"id"`
	TS       int64   `json:"ts"`
	TraceID  string  `json:"trace_id"`
	Symbol   string  `json:"symbol"`
	Percent  float64 `json:"declared_pct"`
	Status   string  `json:"status"`
	Reason   string  `json:"reason,omitempty"`
	Verdict  string  `json:"verdict,omitempty"`
}

type Store struct {
	mu sync.Mutex
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("alert log path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS alert_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		trace_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		declared_pct REAL NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		verdict TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_alert_events_symbol ON alert_events(symbol, ts);`)
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Append 写入一条处理结论。写失败由调用方记日志，不影响交易路径。
func (s *Store) Append(alert engine.Alert, res engine.Result) error {
	var verdict string
	if res.Verdict != nil {
		if b, err := json.Marshal(res.Verdict); err == nil {
			verdict = string(b)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO alert_events(ts, trace_id, symbol, declared_pct, status, reason, verdict)
		 VALUES(?,?,?,?,?,?,?)`,
		time.Now().Unix(), res.TraceID, res.Symbol, alert.Percent, res.Status, res.Reason, verdict,
	)
	return err
}

// Recent 返回最近 limit 条记录，新的在前。
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT id, ts, trace_id, symbol, declared_pct, status, COALESCE(reason,''), COALESCE(verdict,'')
		 FROM alert_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.TS, &r.TraceID, &r.Symbol, &r.Percent, &r.Status, &r.Reason, &r.Verdict); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
