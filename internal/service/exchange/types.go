package exchange

import (
	"context"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/KNICEX/trading-sim/pkg/errs"
	"github.com/shopspring/decimal"
)

var ErrNotImplemented = errs.New("NOT_IMPLEMENTED", "live trading is not implemented")

// Execution is the settlement outcome of one order fill.
type Execution struct {
	// Price is the effective fill price after slippage.
	Price decimal.Decimal
	// FilledAmount is the asset quantity actually credited or debited.
	FilledAmount decimal.Decimal
	Fee          decimal.Decimal
	FeeAsset     string
}

// Adapter executes orders against a venue. The paper adapter settles
// against simulated wallets; a live adapter would route to a real
// exchange.
type Adapter interface {
	// ExecuteOrder fills the order at marketPrice plus venue slippage and
	// settles both legs. It must not mutate wallets when it returns an
	// error, so the caller can compensate by releasing locked funds.
	ExecuteOrder(ctx context.Context, order *entity.Order, marketPrice decimal.Decimal) (Execution, error)
	CancelOrder(ctx context.Context, order *entity.Order) error
}
