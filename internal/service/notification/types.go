package notification

import (
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/shopspring/decimal"
)

type OrderUpdate struct {
	OrderId     string             `json:"orderId"`
	UserId      string             `json:"userId"`
	Symbol      string             `json:"symbol"`
	Status      entity.OrderStatus `json:"status"`
	CloseReason entity.CloseReason `json:"closeReason,omitempty"`
	Price       decimal.Decimal    `json:"price"`
	Pnl         decimal.Decimal    `json:"pnl"`
	At          time.Time          `json:"at"`
}

type TradeAlert struct {
	UserId  string          `json:"userId"`
	Symbol  string          `json:"symbol"`
	Side    entity.Side     `json:"side"`
	Amount  decimal.Decimal `json:"amount"`
	Price   decimal.Decimal `json:"price"`
	Message string          `json:"message"`
	At      time.Time       `json:"at"`
}

// Channel pushes order lifecycle events to interested clients.
// Delivery is best-effort; persistence stays authoritative.
type Channel interface {
	EmitOrderUpdate(update OrderUpdate)
	EmitTradeAlert(alert TradeAlert)
}

type Noop struct{}

func (Noop) EmitOrderUpdate(OrderUpdate) {}

func (Noop) EmitTradeAlert(TradeAlert) {}
