package pumphttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"pumpwatch/internal/engine"
	"pumpwatch/internal/gateway/exchange"
	"pumpwatch/internal/market"
)

// stubExchange 固定应答的交易所替身，路由测试不需要 mock 断言。
type stubExchange struct{}

func (stubExchange) Name() string                                         { return "stub" }
func (stubExchange) GetPrice(context.Context, string) (float64, error)    { return 100, nil }
func (stubExchange) GetCandles(context.Context, string, string, int) ([]market.Candle, error) {
	return nil, nil
}
func (stubExchange) PlaceMarketOrder(context.Context, exchange.OrderRequest) (*exchange.OrderAck, error) {
	return &exchange.OrderAck{}, nil
}
func (stubExchange) ClosePosition(context.Context, string) (*exchange.CloseAck, error) {
	return &exchange.CloseAck{}, nil
}
func (stubExchange) ListOpenPositions(context.Context) ([]exchange.PositionSnapshot, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	client := stubExchange{}
	evaluator := engine.NewEvaluator(client, nil, engine.EvaluatorSettings{})
	monitor := engine.NewMonitor(client, nil, nil, engine.MonitorSettings{})
	svc := engine.NewService(context.Background(), client, evaluator,
		engine.NewCooldown(2*time.Hour), monitor, nil, nil,
		engine.TradeSettings{}, engine.WatcherSettings{})
	srv, err := NewServer(ServerConfig{Addr: ":0", Service: svc})
	assert.NoError(t, err)
	return srv
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodPost, "/"},
		{http.MethodGet, "/healthz"},
	} {
		w := doRequest(srv, tc.method, tc.path, "")
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())
	}
}

func TestWebhookMissingCurrencyIsHealthPing(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(srv, http.MethodPost, "/webhook/alert", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "alert_received").Bool())
}

func TestWebhookBelowMinStrength(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(srv, http.MethodPost, "/webhook/alert", `{"currency":"abc","percent":2}`)
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, gjson.Get(body, "alert_received").Bool())
	assert.Equal(t, "ignored", gjson.Get(body, "status").String())
	assert.Equal(t, "ABC-USDT", gjson.Get(body, "symbol").String())
}

func TestWebhookPercentAsString(t *testing.T) {
	srv := newTestServer(t)
	// 部分信号源把 percent 发成 "2.0%" 字符串
	w := doRequest(srv, http.MethodPost, "/webhook/alert", `{"currency":"abc","percent":"2.0%"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ignored", gjson.Get(w.Body.String(), "status").String())
}

func TestWebhookEvaluationErrorMapsToBadGateway(t *testing.T) {
	srv := newTestServer(t)
	// stub 交易所返回空 K 线，评估是硬失败
	w := doRequest(srv, http.MethodPost, "/webhook/alert", `{"currency":"abc","percent":6}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "error", gjson.Get(w.Body.String(), "status").String())
}

func TestMonitorsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(srv, http.MethodGet, "/api/monitors", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "monitors").Exists())
	assert.True(t, gjson.Get(w.Body.String(), "watchers").Exists())
}

func TestParsePercent(t *testing.T) {
	assert.Equal(t, 5.2, parsePercent(gjson.Parse("5.2")))
	assert.Equal(t, 5.2, parsePercent(gjson.Parse(`"5.2"`)))
	assert.Equal(t, 5.2, parsePercent(gjson.Parse(`"5.2%"`)))
	assert.Equal(t, 0.0, parsePercent(gjson.Parse(`"abc"`)))
	assert.Equal(t, 0.0, parsePercent(gjson.Parse("null")))
}
