package trade

import (
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/shopspring/decimal"
)

// OrderSpec is a placement request. Optional decimal fields use zero as
// "not set".
type OrderSpec struct {
	UserId string
	Symbol string
	Side   entity.Side
	Type   entity.OrderType
	Amount decimal.Decimal
	// LimitPrice is required for LIMIT orders and ignored for MARKET.
	LimitPrice decimal.Decimal

	StopLoss            decimal.Decimal
	TakeProfit          decimal.Decimal
	TrailingStopPercent decimal.Decimal

	BrokerId    string
	TimeInForce entity.TimeInForce
	ExpiresAt   *time.Time

	// ocoLeg marks specs built by PlaceOCO; only those may carry a
	// StopLoss on a sell, which turns the leg into a stop order.
	ocoLeg bool
}

// OCOSpec places two limit orders linked so that filling or cancelling
// one cancels the other.
type OCOSpec struct {
	First  OrderSpec
	Second OrderSpec
}

type Performance struct {
	// TotalOrders counts every order the user placed; TotalTrades counts
	// only closed positions with realized pnl.
	TotalOrders int
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     decimal.Decimal // percent
	TotalPnl    decimal.Decimal
	AvgPnl      decimal.Decimal
	BestTrade   decimal.Decimal
	WorstTrade  decimal.Decimal
	// SharpeRatio is the per-trade mean/stdev of realized pnl, zero when
	// fewer than two trades closed.
	SharpeRatio decimal.Decimal
}

type LeaderboardEntry struct {
	Rank        int
	UserId      string
	TotalPnl    decimal.Decimal
	TotalTrades int
	WinRate     decimal.Decimal
}
