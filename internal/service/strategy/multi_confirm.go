package strategy

import (
	"fmt"

	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/pkg/ta"
)

// MultiConfirm only buys when trend, momentum and strength agree: the
// close sits above the long SMA, the MACD histogram just crossed up and
// the RSI is not yet overbought. It exits on either the trend or the
// momentum turning.
type MultiConfirm struct {
	smaPeriod  int
	fast       int
	slow       int
	signal     int
	rsiPeriod  int
	overbought float64
	closes     []float64
}

func (s *MultiConfirm) Name() string { return "multi_confirm" }

func (s *MultiConfirm) ValidateParams(params Params) error {
	smaPeriod := int(params.value("smaPeriod", 50))
	fast := int(params.value("fastPeriod", 12))
	slow := int(params.value("slowPeriod", 26))
	rsiPeriod := int(params.value("rsiPeriod", 14))
	if smaPeriod <= 0 || fast <= 0 || rsiPeriod <= 1 {
		return fmt.Errorf("%w: periods must be positive", ErrUnknownStrategy)
	}
	if fast >= slow {
		return fmt.Errorf("%w: fast period %d must be below slow period %d", ErrUnknownStrategy, fast, slow)
	}
	return nil
}

func (s *MultiConfirm) Prepare(params Params) error {
	if err := s.ValidateParams(params); err != nil {
		return err
	}
	s.smaPeriod = int(params.value("smaPeriod", 50))
	s.fast = int(params.value("fastPeriod", 12))
	s.slow = int(params.value("slowPeriod", 26))
	s.signal = int(params.value("signalPeriod", 9))
	s.rsiPeriod = int(params.value("rsiPeriod", 14))
	s.overbought = params.value("overbought", 70)
	s.closes = s.closes[:0]
	return nil
}

func (s *MultiConfirm) OnCandle(candle market.Candle) Signal {
	s.closes = append(s.closes, candle.Close.InexactFloat64())

	sma := ta.SMA(s.closes, s.smaPeriod)
	macd := ta.MACD(s.closes, s.fast, s.slow, s.signal)
	rsi := ta.RSI(s.closes, s.rsiPeriod)
	if len(sma) < 2 || len(macd) < 2 || len(rsi) == 0 {
		return hold
	}

	cur := s.closes[len(s.closes)-1]
	prev := s.closes[len(s.closes)-2]
	curSMA, prevSMA := sma[len(sma)-1], sma[len(sma)-2]
	curMACD, prevMACD := macd[len(macd)-1], macd[len(macd)-2]
	curRSI := rsi[len(rsi)-1]

	histCrossUp := prevMACD.Histogram <= 0 && curMACD.Histogram > 0
	histCrossDown := prevMACD.Histogram >= 0 && curMACD.Histogram < 0
	trendCrossDown := prev >= prevSMA && cur < curSMA

	if cur > curSMA && histCrossUp && curRSI < s.overbought {
		return Signal{Action: ActionBuy, Reason: "uptrend with momentum turning up"}
	}
	if trendCrossDown || histCrossDown {
		return Signal{Action: ActionSell, Reason: "trend or momentum turned down"}
	}
	return hold
}
