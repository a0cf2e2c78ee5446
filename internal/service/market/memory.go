package market

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemorySource is a scripted PriceSource and Feed. It backs tests and
// offline runs: prices are set explicitly and candle series are either
// added verbatim or generated from a trend.
type MemorySource struct {
	mu      sync.RWMutex
	prices  map[string]decimal.Decimal
	candles map[string][]Candle // key: symbol_interval

	subMu sync.Mutex
	subs  []chan Update
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		prices:  make(map[string]decimal.Decimal),
		candles: make(map[string][]Candle),
	}
}

func (s *MemorySource) SetPrice(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	s.prices[symbol] = price
	s.mu.Unlock()
}

// Push sets the price and publishes an update to all subscribers.
func (s *MemorySource) Push(symbol string, price decimal.Decimal, at time.Time) {
	s.SetPrice(symbol, price)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- Update{Symbol: symbol, Price: price, At: at}:
		default:
		}
	}
}

func (s *MemorySource) GetPrice(ctx context.Context, symbol string) (Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[symbol]
	if !ok {
		return Quote{}, ErrMarketDataUnavailable
	}
	return Quote{Symbol: symbol, Price: price}, nil
}

func (s *MemorySource) AddCandles(symbol string, interval Interval, candles []Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := symbol + "_" + interval.ToString()
	s.candles[key] = append(s.candles[key], candles...)
}

// GenerateCandles builds count synthetic candles starting at basePrice.
// trend: "up" rises 0.5% per candle, "down" falls 0.5%, anything else
// is flat.
func (s *MemorySource) GenerateCandles(symbol string, interval Interval, startTime time.Time, basePrice float64, count int, trend string) {
	step := time.Minute
	candles := make([]Candle, count)
	for i := 0; i < count; i++ {
		var price float64
		switch trend {
		case "up":
			price = basePrice * (1 + float64(i)*0.005)
		case "down":
			price = basePrice * (1 - float64(i)*0.005)
		default:
			price = basePrice
		}

		open := decimal.NewFromFloat(price * 0.999)
		closePrice := decimal.NewFromFloat(price)
		candles[i] = Candle{
			OpenTime:  startTime.Add(time.Duration(i) * step),
			CloseTime: startTime.Add(time.Duration(i+1) * step),
			Open:      open,
			High:      decimal.Max(open, closePrice).Mul(decimal.NewFromFloat(1.001)),
			Low:       decimal.Min(open, closePrice).Mul(decimal.NewFromFloat(0.999)),
			Close:     closePrice,
			Volume:    decimal.NewFromInt(1000),
		}
	}
	s.AddCandles(symbol, interval, candles)
}

func (s *MemorySource) GetCandles(ctx context.Context, symbol string, interval Interval, limit int) ([]Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candles, ok := s.candles[symbol+"_"+interval.ToString()]
	if !ok {
		return nil, ErrMarketDataUnavailable
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	out := make([]Candle, len(candles))
	copy(out, candles)
	return out, nil
}

func (s *MemorySource) Subscribe(ctx context.Context) (<-chan Update, error) {
	ch := make(chan Update, 16)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch, nil
}
