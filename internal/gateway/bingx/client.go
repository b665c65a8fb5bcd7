// Package bingx implements the exchange client against the BingX
// perpetual swap REST API (HMAC-SHA256 signed query, X-BX-APIKEY header).
package bingx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"pumpwatch/internal/gateway/exchange"
	"pumpwatch/internal/market"
	"pumpwatch/internal/pkg/circuit"
	symbolpkg "pumpwatch/internal/pkg/symbol"
)

const (
	pathPrice     = "/openApi/swap/v2/quote/price"
	pathKlines    = "/openApi/swap/v3/quote/klines"
	pathOrder     = "/openApi/swap/v2/trade/order"
	pathCloseAll  = "/openApi/swap/v2/trade/closeAllPositions"
	pathPositions = "/openApi/swap/v2/user/positions"
)

type Client struct {
	cfg     Config
	http    *http.Client
	breaker *circuit.Breaker
}

func New(cfg Config) *Client {
	final := cfg.withDefaults()
	return &Client{
		cfg:     final,
		http:    &http.Client{Timeout: final.HTTPTimeout},
		breaker: circuit.NewBreaker("bingx-rest", final.BreakerThreshold, final.BreakerCooldown),
	}
}

func (c *Client) Name() string { return "bingx" }

func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	sym := symbolpkg.BingX.ToExchange(symbol)
	body, err := c.do(ctx, http.MethodGet, pathPrice, map[string]string{"symbol": sym}, false)
	if err != nil {
		return 0, err
	}
	price := gjson.GetBytes(body, "data.price").Float()
	if price <= 0 {
		return 0, fmt.Errorf("bingx: no price for %s", sym)
	}
	return price, nil
}

func (c *Client) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	sym := symbolpkg.BingX.ToExchange(symbol)
	params := map[string]string{
		"symbol":   sym,
		"interval": strings.ToLower(strings.TrimSpace(interval)),
		"limit":    strconv.Itoa(limit),
	}
	body, err := c.do(ctx, http.MethodGet, pathKlines, params, false)
	if err != nil {
		return nil, err
	}
	rows := gjson.GetBytes(body, "data")
	out := make([]market.Candle, 0, limit)
	rows.ForEach(func(_, row gjson.Result) bool {
		out = append(out, market.Candle{
			OpenTime:  row.Get("time").Int(),
			CloseTime: row.Get("time").Int(),
			Open:      row.Get("open").Float(),
			High:      row.Get("high").Float(),
			Low:       row.Get("low").Float(),
			Close:     row.Get("close").Float(),
			Volume:    row.Get("volume").Float(),
		})
		return true
	})
	// BingX returns newest first; the engine expects oldest to newest.
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime < out[j].OpenTime })
	return out, nil
}

func (c *Client) PlaceMarketOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.OrderAck, error) {
	sym := symbolpkg.BingX.ToExchange(req.Symbol)
	params := map[string]string{
		"symbol":       sym,
		"side":         strings.ToUpper(req.Side),
		"positionSide": strings.ToUpper(req.PositionSide),
		"type":         "MARKET",
		"quantity":     strconv.FormatFloat(req.Quantity, 'f', -1, 64),
	}
	if req.Leverage > 0 {
		params["leverage"] = strconv.Itoa(req.Leverage)
	}
	body, err := c.do(ctx, http.MethodPost, pathOrder, params, true)
	if err != nil {
		return nil, err
	}
	ack := &exchange.OrderAck{
		OrderID: gjson.GetBytes(body, "data.order.orderId").String(),
		Raw:     rawMap(body),
	}
	return ack, nil
}

func (c *Client) ClosePosition(ctx context.Context, symbol string) (*exchange.CloseAck, error) {
	sym := symbolpkg.BingX.ToExchange(symbol)
	body, err := c.do(ctx, http.MethodPost, pathCloseAll, map[string]string{"symbol": sym}, true)
	if err != nil {
		return nil, err
	}
	return &exchange.CloseAck{Raw: rawMap(body)}, nil
}

func (c *Client) ListOpenPositions(ctx context.Context) ([]exchange.PositionSnapshot, error) {
	body, err := c.do(ctx, http.MethodGet, pathPositions, map[string]string{}, true)
	if err != nil {
		return nil, err
	}
	rows := gjson.GetBytes(body, "data")
	out := make([]exchange.PositionSnapshot, 0, 8)
	rows.ForEach(func(_, row gjson.Result) bool {
		amt := row.Get("positionAmt").Float()
		if amt == 0 {
			return true
		}
		out = append(out, exchange.PositionSnapshot{
			Symbol:     symbolpkg.BingX.FromExchange(row.Get("symbol").String()),
			Side:       strings.ToLower(row.Get("positionSide").String()),
			Amount:     amt,
			EntryPrice: row.Get("avgPrice").Float(),
			Leverage:   row.Get("leverage").Float(),
			MarkPrice:  row.Get("markPrice").Float(),
			PnL:        row.Get("unrealizedProfit").Float(),
			UpdatedAt:  time.Now(),
		})
		return true
	})
	return out, nil
}

// do 执行一次 REST 调用：签名请求走排序后的 query 串，
// 响应体里 code!=0 视为业务错误。
func (c *Client) do(ctx context.Context, method, path string, params map[string]string, signed bool) ([]byte, error) {
	if !c.breaker.Allow() {
		return nil, fmt.Errorf("bingx: circuit open for %s", path)
	}
	if signed {
		params["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
		params["signature"] = c.sign(params)
	}
	query := encodeParams(params)

	var req *http.Request
	var err error
	switch method {
	case http.MethodPost:
		req, err = http.NewRequestWithContext(ctx, method, c.cfg.RESTBaseURL+path, strings.NewReader(query))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		req, err = http.NewRequestWithContext(ctx, method, c.cfg.RESTBaseURL+path+"?"+query, nil)
	}
	if err != nil {
		return nil, err
	}
	if signed {
		req.Header.Set("X-BX-APIKEY", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("bingx %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("bingx %s: read body: %w", path, err)
	}
	if resp.StatusCode/100 != 2 {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("bingx %s: status=%d body=%s", path, resp.StatusCode, truncate(body, 256))
	}
	if code := gjson.GetBytes(body, "code"); code.Exists() && code.Int() != 0 {
		c.breaker.RecordSuccess() // upstream reachable, request itself rejected
		return nil, fmt.Errorf("bingx %s: code=%d msg=%s", path, code.Int(), gjson.GetBytes(body, "msg").String())
	}
	c.breaker.RecordSuccess()
	return body, nil
}

func (c *Client) sign(params map[string]string) string {
	query := encodeParams(params)
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func encodeParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	if sig, ok := params["signature"]; ok {
		b.WriteString("&signature=")
		b.WriteString(sig)
	}
	return b.String()
}

func rawMap(body []byte) map[string]any {
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil
	}
	out, _ := parsed.Value().(map[string]any)
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
