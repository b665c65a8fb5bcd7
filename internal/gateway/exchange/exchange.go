// Package exchange defines the client contract the engine consumes.
// Concrete implementations (BingX, Binance futures) live in sibling packages;
// request signing is their own concern.
package exchange

import (
	"context"

	"pumpwatch/internal/market"
)

type Client interface {
	Name() string

	GetPrice(ctx context.Context, symbol string) (float64, error)

	// GetCandles returns OHLCV candles ordered oldest to newest.
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)

	PlaceMarketOrder(ctx context.Context, req OrderRequest) (*OrderAck, error)

	ClosePosition(ctx context.Context, symbol string) (*CloseAck, error)

	ListOpenPositions(ctx context.Context) ([]PositionSnapshot, error)
}
