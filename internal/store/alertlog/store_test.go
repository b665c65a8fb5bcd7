package alertlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"pumpwatch/internal/engine"
)

func TestAppendAndRecent(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "alerts.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	alert := engine.Alert{Currency: "abc", Percent: 6}
	assert.NoError(t, s.Append(alert, engine.Result{
		TraceID: "t-1", Symbol: "ABC-USDT", Status: engine.StatusIgnored, Reason: "below minimum",
	}))
	assert.NoError(t, s.Append(alert, engine.Result{
		TraceID: "t-2", Symbol: "ABC-USDT", Status: engine.StatusOK,
		Verdict: &engine.Verdict{Pass: true, PumpPct: 6.2},
	}))

	events, err := s.Recent(10)
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, "t-2", events[0].TraceID, "最新的在前")
	assert.Contains(t, events[0].Verdict, `"real_pump_pct":6.2`)
	assert.Equal(t, engine.StatusIgnored, events[1].Status)
	assert.Equal(t, 6.0, events[1].Percent)
}
