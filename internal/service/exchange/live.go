package exchange

import (
	"context"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

var _ Adapter = (*LiveAdapter)(nil)

// LiveAdapter will route orders to binance spot. Only the wiring exists
// today; every call reports ErrNotImplemented.
type LiveAdapter struct {
	cli *binance.Client
}

func NewLiveAdapter(cli *binance.Client) *LiveAdapter {
	return &LiveAdapter{cli: cli}
}

func (a *LiveAdapter) ExecuteOrder(ctx context.Context, order *entity.Order, marketPrice decimal.Decimal) (Execution, error) {
	return Execution{}, ErrNotImplemented
}

func (a *LiveAdapter) CancelOrder(ctx context.Context, order *entity.Order) error {
	return ErrNotImplemented
}
