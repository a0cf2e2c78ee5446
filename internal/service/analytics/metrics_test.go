package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
}

func trade(side entity.Side, price, amount, fee float64, i int) Trade {
	return Trade{
		Side:   side,
		Symbol: "BTC",
		Amount: decimal.NewFromFloat(amount),
		Price:  decimal.NewFromFloat(price),
		Fee:    decimal.NewFromFloat(fee),
		At:     at(i),
	}
}

func curveOf(values ...float64) []EquityPoint {
	out := make([]EquityPoint, len(values))
	for i, v := range values {
		out[i] = EquityPoint{At: at(i), Equity: decimal.NewFromFloat(v)}
	}
	return out
}

func TestRoundTrips(t *testing.T) {
	trades := []Trade{
		trade(entity.SideBuy, 100, 1, 1, 0),
		trade(entity.SideSell, 120, 1, 1, 1),
		trade(entity.SideBuy, 110, 2, 0, 2),
		trade(entity.SideSell, 105, 2, 0, 3),
	}
	rts := RoundTrips(trades)
	require.Len(t, rts, 2)

	// (120*1 - 1) - (100*1 + 1) = 18
	assert.True(t, rts[0].Pnl.Equal(decimal.NewFromInt(18)), "pnl = %s", rts[0].Pnl)
	// (105*2) - (110*2) = -10
	assert.True(t, rts[1].Pnl.Equal(decimal.NewFromInt(-10)))
}

func TestRoundTrips_IgnoresOrphanSell(t *testing.T) {
	trades := []Trade{
		trade(entity.SideSell, 120, 1, 0, 0),
		trade(entity.SideBuy, 100, 1, 0, 1),
	}
	assert.Empty(t, RoundTrips(trades))
}

func TestCalculate_Returns(t *testing.T) {
	m := Calculate(
		decimal.NewFromInt(10000), decimal.NewFromInt(12000),
		nil, curveOf(10000, 11000, 12000), 0.02,
	)
	assert.True(t, m.TotalReturn.Equal(decimal.NewFromInt(2000)))
	assert.True(t, m.TotalReturnPercent.Equal(decimal.NewFromInt(20)))
	assert.Greater(t, m.AnnualizedReturn, 0.0)
	assert.Equal(t, 0, m.TotalTrades)
}

func TestCalculate_TradeStats(t *testing.T) {
	trades := []Trade{
		trade(entity.SideBuy, 100, 1, 0, 0),
		trade(entity.SideSell, 110, 1, 0, 1), // +10
		trade(entity.SideBuy, 110, 1, 0, 2),
		trade(entity.SideSell, 130, 1, 0, 3), // +20
		trade(entity.SideBuy, 130, 1, 0, 4),
		trade(entity.SideSell, 125, 1, 0, 5), // -5
	}
	m := Calculate(decimal.NewFromInt(1000), decimal.NewFromInt(1025), trades, nil, 0.02)

	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.True(t, m.WinRate.Round(2).Equal(decimal.NewFromFloat(66.67)))
	assert.True(t, m.BestTrade.Equal(decimal.NewFromInt(20)))
	assert.True(t, m.WorstTrade.Equal(decimal.NewFromInt(-5)))
	assert.True(t, m.AvgWin.Equal(decimal.NewFromInt(15)))
	assert.True(t, m.AvgLoss.Equal(decimal.NewFromInt(-5)))
	assert.Equal(t, 2, m.MaxWinStreak)
	assert.Equal(t, 1, m.MaxLossStreak)
	assert.InDelta(t, 6.0, m.ProfitFactor, 1e-9) // 30 / 5

	// 2/3 * 15 + 1/3 * -5 = 8.33...
	assert.True(t, m.Expectancy.Round(2).Equal(decimal.NewFromFloat(8.33)), "expectancy = %s", m.Expectancy)
}

func TestCalculate_ProfitFactorEdges(t *testing.T) {
	onlyWins := []Trade{
		trade(entity.SideBuy, 100, 1, 0, 0),
		trade(entity.SideSell, 110, 1, 0, 1),
	}
	m := Calculate(decimal.NewFromInt(1000), decimal.NewFromInt(1010), onlyWins, nil, 0.02)
	assert.True(t, math.IsInf(m.ProfitFactor, 1))

	flat := []Trade{
		trade(entity.SideBuy, 100, 1, 0, 0),
		trade(entity.SideSell, 100, 1, 0, 1),
	}
	m = Calculate(decimal.NewFromInt(1000), decimal.NewFromInt(1000), flat, nil, 0.02)
	assert.Equal(t, 0.0, m.ProfitFactor)
}

func TestCalculate_MaxDrawdown(t *testing.T) {
	// Peak 12000, trough 9000: drawdown 3000 = 25%.
	m := Calculate(
		decimal.NewFromInt(10000), decimal.NewFromInt(11000),
		nil, curveOf(10000, 12000, 9000, 11000), 0.02,
	)
	assert.True(t, m.MaxDrawdown.Equal(decimal.NewFromInt(3000)))
	assert.True(t, m.MaxDrawdownPercent.Equal(decimal.NewFromInt(25)))

	require.Len(t, m.DrawdownCurve, 4)
	assert.True(t, m.DrawdownCurve[0].Drawdown.IsZero())
	assert.True(t, m.DrawdownCurve[1].Drawdown.IsZero(), "new peak is no drawdown")
	assert.True(t, m.DrawdownCurve[2].DrawdownPercent.Equal(decimal.NewFromInt(25)))
	// 11000 is still 1000 below the 12000 peak.
	assert.True(t, m.DrawdownCurve[3].Drawdown.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, at(2), m.DrawdownCurve[2].At)
}

func TestCalculate_RatiosSteadyGrowth(t *testing.T) {
	// Constant positive returns: sharpe positive, no downside periods.
	m := Calculate(
		decimal.NewFromInt(10000), decimal.NewFromFloat(10406.04),
		nil, curveOf(10000, 10100, 10201, 10303.01, 10406.04), 0.02,
	)
	assert.Greater(t, m.SharpeRatio, 0.0)
	assert.Equal(t, 0.0, m.SortinoRatio, "no returns below the risk-free floor")
	assert.GreaterOrEqual(t, m.Volatility, 0.0)
}

func TestCalculate_EmptyInputs(t *testing.T) {
	m := Calculate(decimal.Zero, decimal.Zero, nil, nil, 0.02)
	assert.Equal(t, 0, m.TotalTrades)
	assert.True(t, m.TotalReturn.IsZero())
	assert.Equal(t, 0.0, m.SharpeRatio)
}
