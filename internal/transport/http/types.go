package pumphttp

import "pumpwatch/internal/engine"

// alertResponse 固定 webhook 应答外形，保持与历史消费者兼容的字段名。
func alertResponse(res engine.Result) map[string]any {
	out := map[string]any{
		"alert_received": true,
		"status":         res.Status,
		"trace_id":       res.TraceID,
		"symbol":         res.Symbol,
	}
	if res.Reason != "" {
		out["reason"] = res.Reason
	}
	if res.RemainingSeconds > 0 {
		out["remaining_seconds"] = res.RemainingSeconds
	}
	if res.Status == engine.StatusOK {
		out["side"] = res.Side
		out["entry_price"] = res.EntryPrice
		out["tp_price"] = res.TPPrice
		out["sl_price"] = res.SLPrice
		out["quantity"] = res.Quantity
		out["entry_response"] = res.EntryAck
		out["positions_response"] = res.Positions
	}
	if res.Verdict != nil {
		out["verdict"] = res.Verdict
	}
	return out
}
