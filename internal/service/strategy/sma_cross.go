package strategy

import (
	"fmt"

	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/pkg/ta"
)

// SMACross trades moving average crossovers: buy when the short SMA
// crosses above the long one, sell when it crosses back below.
type SMACross struct {
	shortPeriod int
	longPeriod  int
	closes      []float64
}

func (s *SMACross) Name() string { return "sma_cross" }

func (s *SMACross) ValidateParams(params Params) error {
	short := int(params.value("shortPeriod", 10))
	long := int(params.value("longPeriod", 30))
	if short <= 0 || long <= 0 {
		return fmt.Errorf("%w: periods must be positive", ErrUnknownStrategy)
	}
	if short >= long {
		return fmt.Errorf("%w: short period %d must be below long period %d", ErrUnknownStrategy, short, long)
	}
	return nil
}

func (s *SMACross) Prepare(params Params) error {
	if err := s.ValidateParams(params); err != nil {
		return err
	}
	s.shortPeriod = int(params.value("shortPeriod", 10))
	s.longPeriod = int(params.value("longPeriod", 30))
	s.closes = s.closes[:0]
	return nil
}

func (s *SMACross) OnCandle(candle market.Candle) Signal {
	s.closes = append(s.closes, candle.Close.InexactFloat64())

	short := ta.SMA(s.closes, s.shortPeriod)
	long := ta.SMA(s.closes, s.longPeriod)
	if len(long) == 0 {
		return hold
	}
	// At the first point where both averages exist there is no previous
	// sample; a short average already above the long one counts as the
	// cross, so an established trend is entered right after warm-up.
	if len(long) == 1 {
		if short[len(short)-1] > long[0] {
			return Signal{Action: ActionBuy, Reason: "short SMA above long SMA at warm-up"}
		}
		return hold
	}

	curS, prevS := short[len(short)-1], short[len(short)-2]
	curL, prevL := long[len(long)-1], long[len(long)-2]

	if prevS <= prevL && curS > curL {
		return Signal{Action: ActionBuy, Reason: "short SMA crossed above long SMA"}
	}
	if prevS >= prevL && curS < curL {
		return Signal{Action: ActionSell, Reason: "short SMA crossed below long SMA"}
	}
	return hold
}
