package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled || s == OrderStatusExpired
}

type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceGTD TimeInForce = "GTD"
	TimeInForceIOC TimeInForce = "IOC"
)

type CloseReason string

const (
	CloseReasonStopLoss     CloseReason = "STOP_LOSS"
	CloseReasonTakeProfit   CloseReason = "TAKE_PROFIT"
	CloseReasonTrailingStop CloseReason = "TRAILING_STOP"
	CloseReasonOCOCancelled CloseReason = "OCO_CANCELLED"
	CloseReasonExpired      CloseReason = "EXPIRED"
)

// Order is created by the trade service and only ever transitioned, never
// deleted. Optional decimal fields use zero as "not set", matching how
// the rest of the codebase treats decimal.Decimal.
type Order struct {
	Id           string          `gorm:"primaryKey"`
	UserId       string          `gorm:"index"`
	Symbol       string          `gorm:"index"`
	Amount       decimal.Decimal `gorm:"type:numeric"`
	FilledAmount decimal.Decimal `gorm:"type:numeric"`
	// Price is the locked price at placement; overwritten with the
	// execution price once the order fills.
	Price  decimal.Decimal `gorm:"type:numeric"`
	Side   Side            `gorm:"index"`
	Type   OrderType
	Status OrderStatus `gorm:"index"`

	StopLoss            decimal.Decimal `gorm:"type:numeric"`
	TakeProfit          decimal.Decimal `gorm:"type:numeric"`
	TrailingStopPercent decimal.Decimal `gorm:"type:numeric"`
	// HighestPrice is the trailing peak, monotonically non-decreasing
	// while the position stays open.
	HighestPrice decimal.Decimal `gorm:"type:numeric"`

	LinkedOrderId string `gorm:"index"` // OCO sibling
	CloseReason   CloseReason
	Pnl           decimal.Decimal `gorm:"type:numeric"` // meaningful only when CloseReason is set

	BrokerId string
	Fee      decimal.Decimal `gorm:"type:numeric"`
	FeeAsset string

	TimeInForce TimeInForce
	ExpiresAt   *time.Time

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// OpenPosition reports whether the order is a live long exposure the
// monitor must watch: a filled BUY that has not been closed by a trigger.
func (o *Order) OpenPosition() bool {
	return o.Status == OrderStatusFilled && o.Side == SideBuy && o.CloseReason == ""
}

func (o *Order) Notional() decimal.Decimal {
	return o.Amount.Mul(o.Price)
}

// Expired reports whether a GTD order's deadline has passed at now.
func (o *Order) Expired(now time.Time) bool {
	return o.TimeInForce == TimeInForceGTD && o.ExpiresAt != nil && !o.ExpiresAt.After(now)
}
