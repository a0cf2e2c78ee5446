package strategy

import (
	"fmt"

	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/pkg/ta"
)

// MACD trades histogram zero crossings: buy when the MACD line moves
// above its signal line, sell when it drops back below.
type MACD struct {
	fast   int
	slow   int
	signal int
	closes []float64
}

func (s *MACD) Name() string { return "macd" }

func (s *MACD) ValidateParams(params Params) error {
	fast := int(params.value("fastPeriod", 12))
	slow := int(params.value("slowPeriod", 26))
	signal := int(params.value("signalPeriod", 9))
	if fast <= 0 || signal <= 0 {
		return fmt.Errorf("%w: periods must be positive", ErrUnknownStrategy)
	}
	if fast >= slow {
		return fmt.Errorf("%w: fast period %d must be below slow period %d", ErrUnknownStrategy, fast, slow)
	}
	return nil
}

func (s *MACD) Prepare(params Params) error {
	if err := s.ValidateParams(params); err != nil {
		return err
	}
	s.fast = int(params.value("fastPeriod", 12))
	s.slow = int(params.value("slowPeriod", 26))
	s.signal = int(params.value("signalPeriod", 9))
	s.closes = s.closes[:0]
	return nil
}

func (s *MACD) OnCandle(candle market.Candle) Signal {
	s.closes = append(s.closes, candle.Close.InexactFloat64())

	series := ta.MACD(s.closes, s.fast, s.slow, s.signal)
	if len(series) < 2 {
		return hold
	}

	cur, prev := series[len(series)-1], series[len(series)-2]
	if prev.Histogram <= 0 && cur.Histogram > 0 {
		return Signal{Action: ActionBuy, Reason: "MACD crossed above signal line"}
	}
	if prev.Histogram >= 0 && cur.Histogram < 0 {
		return Signal{Action: ActionSell, Reason: "MACD crossed below signal line"}
	}
	return hold
}
