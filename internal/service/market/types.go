package market

import (
	"context"
	"time"

	"github.com/KNICEX/trading-sim/pkg/errs"
	"github.com/shopspring/decimal"
)

var ErrMarketDataUnavailable = errs.New("MARKET_DATA_UNAVAILABLE", "market data unavailable")

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

type Quote struct {
	Symbol string
	Price  decimal.Decimal
}

// PriceSource quotes assets against USD. Symbols are base asset codes
// ("BTC"), not exchange pairs.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (Quote, error)
	// GetCandles returns up to limit candles ordered oldest to newest.
	GetCandles(ctx context.Context, symbol string, interval Interval, limit int) ([]Candle, error)
}

type Update struct {
	Symbol string
	Price  decimal.Decimal
	At     time.Time
}

// Feed streams price updates to the trigger monitor. Delivery is
// best-effort; the periodic tick is the safety net.
type Feed interface {
	Subscribe(ctx context.Context) (<-chan Update, error)
}
