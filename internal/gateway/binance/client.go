// Package binance 基于 go-binance SDK 实现 USDⓈ-M 合约的 exchange.Client。
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"pumpwatch/internal/gateway/exchange"
	"pumpwatch/internal/market"
	symbolpkg "pumpwatch/internal/pkg/symbol"
)

const maxHistoryLimit = 1500

type Client struct {
	cfg    Config
	client *futures.Client

	levMu       sync.Mutex
	leverageSet map[string]int
}

func New(cfg Config) *Client {
	final := cfg.withDefaults()
	client := futures.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Client{
		cfg:         final,
		client:      client,
		leverageSet: make(map[string]int),
	}
}

func (c *Client) Name() string { return "binance" }

func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	sym := symbolpkg.Binance.ToExchange(symbol)
	if sym == "" {
		return 0, fmt.Errorf("binance: invalid symbol %q", symbol)
	}
	prices, err := c.client.NewListPricesService().Symbol(sym).Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("binance: no price for %s", sym)
	}
	price := parseFloat(prices[0].Price)
	if price <= 0 {
		return 0, fmt.Errorf("binance: zero price for %s", sym)
	}
	return price, nil
}

func (c *Client) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	sym := symbolpkg.Binance.ToExchange(symbol)
	if sym == "" {
		return nil, fmt.Errorf("binance: invalid symbol %q", symbol)
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("binance: interval is required")
	}
	kls, err := c.client.NewKlinesService().Symbol(sym).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

func (c *Client) PlaceMarketOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.OrderAck, error) {
	sym := symbolpkg.Binance.ToExchange(req.Symbol)
	if sym == "" {
		return nil, fmt.Errorf("binance: invalid symbol %q", req.Symbol)
	}
	if err := c.ensureLeverage(ctx, sym, req.Leverage); err != nil {
		return nil, err
	}
	side := futures.SideTypeBuy
	if strings.EqualFold(req.Side, "SELL") {
		side = futures.SideTypeSell
	}
	posSide := futures.PositionSideTypeLong
	if strings.EqualFold(req.PositionSide, "SHORT") {
		posSide = futures.PositionSideTypeShort
	}
	resp, err := c.client.NewCreateOrderService().
		Symbol(sym).
		Side(side).
		PositionSide(posSide).
		Type(futures.OrderTypeMarket).
		Quantity(strconv.FormatFloat(req.Quantity, 'f', -1, 64)).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	return &exchange.OrderAck{
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Raw: map[string]any{
			"order_id":      resp.OrderID,
			"client_id":     resp.ClientOrderID,
			"status":        string(resp.Status),
			"orig_quantity": resp.OrigQuantity,
		},
	}, nil
}

// ClosePosition 对冲平仓：按当前持仓量反向市价单，reduce-only 语义由
// positionSide 保证。
func (c *Client) ClosePosition(ctx context.Context, symbol string) (*exchange.CloseAck, error) {
	sym := symbolpkg.Binance.ToExchange(symbol)
	risks, err := c.client.NewGetPositionRiskService().Symbol(sym).Do(ctx)
	if err != nil {
		return nil, err
	}
	closed := make([]string, 0, len(risks))
	for _, r := range risks {
		if r == nil {
			continue
		}
		amt := parseFloat(r.PositionAmt)
		if amt == 0 {
			continue
		}
		side := futures.SideTypeSell
		posSide := futures.PositionSideTypeLong
		qty := amt
		if amt < 0 {
			side = futures.SideTypeBuy
			posSide = futures.PositionSideTypeShort
			qty = -amt
		}
		_, err := c.client.NewCreateOrderService().
			Symbol(sym).
			Side(side).
			PositionSide(posSide).
			Type(futures.OrderTypeMarket).
			Quantity(strconv.FormatFloat(qty, 'f', -1, 64)).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance: close %s %s: %w", sym, posSide, err)
		}
		closed = append(closed, string(posSide))
	}
	return &exchange.CloseAck{Raw: map[string]any{"symbol": sym, "closed_sides": closed}}, nil
}

func (c *Client) ListOpenPositions(ctx context.Context) ([]exchange.PositionSnapshot, error) {
	risks, err := c.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]exchange.PositionSnapshot, 0, len(risks))
	for _, r := range risks {
		if r == nil {
			continue
		}
		amt := parseFloat(r.PositionAmt)
		if amt == 0 {
			continue
		}
		side := "long"
		if amt < 0 {
			side = "short"
		}
		out = append(out, exchange.PositionSnapshot{
			Symbol:     symbolpkg.Binance.FromExchange(r.Symbol),
			Side:       side,
			Amount:     amt,
			EntryPrice: parseFloat(r.EntryPrice),
			Leverage:   parseFloat(r.Leverage),
			MarkPrice:  parseFloat(r.MarkPrice),
			PnL:        parseFloat(r.UnRealizedProfit),
			UpdatedAt:  time.Now(),
		})
	}
	return out, nil
}

// ensureLeverage 每个 symbol 只调一次杠杆设置接口。
func (c *Client) ensureLeverage(ctx context.Context, sym string, leverage int) error {
	if leverage <= 0 {
		return nil
	}
	c.levMu.Lock()
	current, ok := c.leverageSet[sym]
	c.levMu.Unlock()
	if ok && current == leverage {
		return nil
	}
	if _, err := c.client.NewChangeLeverageService().Symbol(sym).Leverage(leverage).Do(ctx); err != nil {
		return fmt.Errorf("binance: set leverage %dx on %s: %w", leverage, sym, err)
	}
	c.levMu.Lock()
	c.leverageSet[sym] = leverage
	c.levMu.Unlock()
	return nil
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
