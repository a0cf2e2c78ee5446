package analytics

import (
	"math"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/shopspring/decimal"
)

const tradingDaysPerYear = 252

// Trade is one executed leg of a simulation.
type Trade struct {
	Side   entity.Side
	Symbol string
	Amount decimal.Decimal
	Price  decimal.Decimal
	Fee    decimal.Decimal
	At     time.Time
}

type EquityPoint struct {
	At     time.Time
	Equity decimal.Decimal
}

// RoundTrip pairs a buy with the sell that flattened it. Pnl is net of
// both fees.
type RoundTrip struct {
	EntryAt    time.Time
	ExitAt     time.Time
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Pnl        decimal.Decimal
}

// DrawdownPoint is the distance below the running equity peak at one
// moment, as a percentage of that peak.
type DrawdownPoint struct {
	At              time.Time
	Drawdown        decimal.Decimal
	DrawdownPercent decimal.Decimal
}

type Metrics struct {
	TotalReturn        decimal.Decimal
	TotalReturnPercent decimal.Decimal
	AnnualizedReturn   float64

	SharpeRatio  float64
	SortinoRatio float64
	Volatility   float64

	MaxDrawdown        decimal.Decimal
	MaxDrawdownPercent decimal.Decimal
	DrawdownCurve      []DrawdownPoint

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       decimal.Decimal
	// ProfitFactor is +Inf when there are gains but no losses.
	ProfitFactor  float64
	AvgWin        decimal.Decimal
	AvgLoss       decimal.Decimal
	BestTrade     decimal.Decimal
	WorstTrade    decimal.Decimal
	// Expectancy is the mean outcome of one round trip given the
	// observed win rate and average win/loss sizes.
	Expectancy    decimal.Decimal

	MaxWinStreak  int
	MaxLossStreak int
}

// RoundTrips extracts completed positions from the trade log. The
// simulator is always flat or long one position, so matching is a
// simple buy-then-sell walk.
func RoundTrips(trades []Trade) []RoundTrip {
	var out []RoundTrip
	var open *Trade
	for i := range trades {
		t := trades[i]
		switch t.Side {
		case entity.SideBuy:
			open = &t
		case entity.SideSell:
			if open == nil {
				continue
			}
			proceeds := t.Price.Mul(t.Amount).Sub(t.Fee)
			cost := open.Price.Mul(t.Amount).Add(open.Fee)
			out = append(out, RoundTrip{
				EntryAt:    open.At,
				ExitAt:     t.At,
				Amount:     t.Amount,
				EntryPrice: open.Price,
				ExitPrice:  t.Price,
				Pnl:        proceeds.Sub(cost),
			})
			open = nil
		}
	}
	return out
}

// Calculate derives performance metrics from a finished run. Ratio
// metrics annualize per-candle returns as if each candle were one
// trading day; riskFreeRate is annual (0.02 for 2%).
func Calculate(initialCapital, finalEquity decimal.Decimal, trades []Trade, curve []EquityPoint, riskFreeRate float64) Metrics {
	m := Metrics{}

	if initialCapital.IsPositive() {
		m.TotalReturn = finalEquity.Sub(initialCapital)
		m.TotalReturnPercent = m.TotalReturn.Div(initialCapital).Mul(decimal.NewFromInt(100))
	}

	returns := periodReturns(curve)
	m.AnnualizedReturn = annualize(initialCapital, finalEquity, len(returns))
	m.SharpeRatio, m.SortinoRatio, m.Volatility = ratios(returns, riskFreeRate)
	m.MaxDrawdown, m.MaxDrawdownPercent, m.DrawdownCurve = drawdowns(curve)

	roundTrips := RoundTrips(trades)
	m.TotalTrades = len(roundTrips)
	if len(roundTrips) == 0 {
		return m
	}

	grossProfit, grossLoss := decimal.Zero, decimal.Zero
	winStreak, lossStreak := 0, 0
	sumWin, sumLoss := decimal.Zero, decimal.Zero
	for i, rt := range roundTrips {
		if i == 0 || rt.Pnl.GreaterThan(m.BestTrade) {
			m.BestTrade = rt.Pnl
		}
		if i == 0 || rt.Pnl.LessThan(m.WorstTrade) {
			m.WorstTrade = rt.Pnl
		}
		if rt.Pnl.IsPositive() {
			m.WinningTrades++
			grossProfit = grossProfit.Add(rt.Pnl)
			sumWin = sumWin.Add(rt.Pnl)
			winStreak++
			lossStreak = 0
		} else {
			m.LosingTrades++
			grossLoss = grossLoss.Add(rt.Pnl.Abs())
			sumLoss = sumLoss.Add(rt.Pnl)
			lossStreak++
			winStreak = 0
		}
		if winStreak > m.MaxWinStreak {
			m.MaxWinStreak = winStreak
		}
		if lossStreak > m.MaxLossStreak {
			m.MaxLossStreak = lossStreak
		}
	}

	n := decimal.NewFromInt(int64(m.TotalTrades))
	m.WinRate = decimal.NewFromInt(int64(m.WinningTrades)).Div(n).Mul(decimal.NewFromInt(100))
	if m.WinningTrades > 0 {
		m.AvgWin = sumWin.Div(decimal.NewFromInt(int64(m.WinningTrades)))
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = sumLoss.Div(decimal.NewFromInt(int64(m.LosingTrades)))
	}

	winRatio := decimal.NewFromInt(int64(m.WinningTrades)).Div(n)
	lossRatio := decimal.NewFromInt(int64(m.LosingTrades)).Div(n)
	m.Expectancy = winRatio.Mul(m.AvgWin).Add(lossRatio.Mul(m.AvgLoss))

	switch {
	case !grossLoss.IsZero():
		m.ProfitFactor = grossProfit.Div(grossLoss).InexactFloat64()
	case grossProfit.IsPositive():
		m.ProfitFactor = math.Inf(1)
	default:
		m.ProfitFactor = 0
	}
	return m
}

func periodReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if !prev.IsPositive() {
			out = append(out, 0)
			continue
		}
		out = append(out, curve[i].Equity.Sub(prev).Div(prev).InexactFloat64())
	}
	return out
}

func annualize(initial, final decimal.Decimal, periods int) float64 {
	if periods == 0 || !initial.IsPositive() || !final.IsPositive() {
		return 0
	}
	growth := final.Div(initial).InexactFloat64()
	return math.Pow(growth, tradingDaysPerYear/float64(periods)) - 1
}

func ratios(returns []float64, riskFreeRate float64) (sharpe, sortino, volatility float64) {
	if len(returns) < 2 {
		return 0, 0, 0
	}
	rfDaily := riskFreeRate / tradingDaysPerYear

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	downVariance := 0.0
	downCount := 0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
		if r < rfDaily {
			downVariance += (r - rfDaily) * (r - rfDaily)
			downCount++
		}
	}
	variance /= float64(len(returns) - 1)

	stdev := math.Sqrt(variance)
	volatility = stdev * math.Sqrt(tradingDaysPerYear)
	if stdev > 0 {
		sharpe = (mean - rfDaily) / stdev * math.Sqrt(tradingDaysPerYear)
	}
	if downCount > 0 {
		downDev := math.Sqrt(downVariance / float64(downCount))
		if downDev > 0 {
			sortino = (mean - rfDaily) / downDev * math.Sqrt(tradingDaysPerYear)
		}
	}
	return sharpe, sortino, volatility
}

func drawdowns(curve []EquityPoint) (maxDD, maxDDPct decimal.Decimal, points []DrawdownPoint) {
	if len(curve) == 0 {
		return decimal.Zero, decimal.Zero, nil
	}
	points = make([]DrawdownPoint, 0, len(curve))
	peak := curve[0].Equity
	for _, p := range curve {
		if p.Equity.GreaterThan(peak) {
			peak = p.Equity
		}
		dd := peak.Sub(p.Equity)
		ddPct := decimal.Zero
		if peak.IsPositive() {
			ddPct = dd.Div(peak).Mul(decimal.NewFromInt(100))
		}
		points = append(points, DrawdownPoint{At: p.At, Drawdown: dd, DrawdownPercent: ddPct})
		if dd.GreaterThan(maxDD) {
			maxDD = dd
			maxDDPct = ddPct
		}
	}
	return maxDD, maxDDPct, points
}
