package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/adshao/go-binance/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var _ market.PriceSource = (*Source)(nil)

// Source quotes assets via binance spot, pairing every symbol against
// USDT as the USD proxy.
type Source struct {
	cli *binance.Client
}

func NewSource(cli *binance.Client) *Source {
	return &Source{cli: cli}
}

func pair(symbol string) string {
	return symbol + "USDT"
}

func (s *Source) GetPrice(ctx context.Context, symbol string) (market.Quote, error) {
	prices, err := s.cli.NewListPricesService().Symbol(pair(symbol)).Do(ctx)
	if err != nil {
		return market.Quote{}, fmt.Errorf("%w: %s", market.ErrMarketDataUnavailable, err)
	}
	if len(prices) == 0 {
		return market.Quote{}, fmt.Errorf("%w: no ticker for %s", market.ErrMarketDataUnavailable, symbol)
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return market.Quote{}, fmt.Errorf("%w: bad price %q", market.ErrMarketDataUnavailable, prices[0].Price)
	}
	return market.Quote{Symbol: symbol, Price: price}, nil
}

func (s *Source) GetCandles(ctx context.Context, symbol string, interval market.Interval, limit int) ([]market.Candle, error) {
	svc := s.cli.NewKlinesService().Symbol(pair(symbol)).Interval(interval.ToString())
	if limit > 0 {
		svc.Limit(limit)
	}
	klines, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", market.ErrMarketDataUnavailable, err)
	}

	return lo.Map(klines, func(k *binance.Kline, _ int) market.Candle {
		return market.Candle{
			OpenTime:  time.UnixMilli(k.OpenTime),
			CloseTime: time.UnixMilli(k.CloseTime),
			Open:      mustDecimal(k.Open),
			High:      mustDecimal(k.High),
			Low:       mustDecimal(k.Low),
			Close:     mustDecimal(k.Close),
			Volume:    mustDecimal(k.Volume),
		}
	}), nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
