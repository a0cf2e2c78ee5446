package strategy

import (
	"fmt"

	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/pkg/ta"
)

// RSI is a mean-reversion strategy: buy when the oscillator climbs back
// up through the oversold threshold, sell when it drops back down
// through the overbought one.
type RSI struct {
	period     int
	overbought float64
	oversold   float64
	closes     []float64
}

func (s *RSI) Name() string { return "rsi" }

func (s *RSI) ValidateParams(params Params) error {
	period := int(params.value("period", 14))
	overbought := params.value("overbought", 70)
	oversold := params.value("oversold", 30)
	if period <= 1 {
		return fmt.Errorf("%w: period must be above 1", ErrUnknownStrategy)
	}
	if oversold >= overbought {
		return fmt.Errorf("%w: oversold %v must be below overbought %v", ErrUnknownStrategy, oversold, overbought)
	}
	if oversold < 0 || overbought > 100 {
		return fmt.Errorf("%w: thresholds must stay within [0, 100]", ErrUnknownStrategy)
	}
	return nil
}

func (s *RSI) Prepare(params Params) error {
	if err := s.ValidateParams(params); err != nil {
		return err
	}
	s.period = int(params.value("period", 14))
	s.overbought = params.value("overbought", 70)
	s.oversold = params.value("oversold", 30)
	s.closes = s.closes[:0]
	return nil
}

func (s *RSI) OnCandle(candle market.Candle) Signal {
	s.closes = append(s.closes, candle.Close.InexactFloat64())

	series := ta.RSI(s.closes, s.period)
	if len(series) < 2 {
		return hold
	}

	cur, prev := series[len(series)-1], series[len(series)-2]
	if prev <= s.oversold && cur > s.oversold {
		return Signal{Action: ActionBuy, Reason: fmt.Sprintf("RSI %.1f recovered above %.0f", cur, s.oversold)}
	}
	if prev >= s.overbought && cur < s.overbought {
		return Signal{Action: ActionSell, Reason: fmt.Sprintf("RSI %.1f fell below %.0f", cur, s.overbought)}
	}
	return hold
}
