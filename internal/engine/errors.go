package engine

import "errors"

var (
	// ErrInsufficientHistory K 线数量不足以评估（硬失败）。
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrMonitorExists 同一 symbol 已有监控任务在跑。
	ErrMonitorExists = errors.New("monitor already active")

	// ErrWatcherExists 同一 symbol 已有延迟观察任务在跑。
	ErrWatcherExists = errors.New("watcher already active")
)
