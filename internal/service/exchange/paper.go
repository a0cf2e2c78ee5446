package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/KNICEX/trading-sim/internal/service/broker"
	"github.com/KNICEX/trading-sim/internal/service/wallet"
	"github.com/shopspring/decimal"
)

const usdCurrency = "USD"

var _ Adapter = (*PaperAdapter)(nil)

// PaperAdapter simulates fills: a random slippage of up to ±0.1% on the
// market price, taker fees from the broker catalog, and settlement
// against the user's simulated wallets.
type PaperAdapter struct {
	wallets *wallet.Service
	brokers *broker.Catalog
	logger  *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPaperAdapter(wallets *wallet.Service, brokers *broker.Catalog, logger *slog.Logger) *PaperAdapter {
	return NewPaperAdapterWithRand(wallets, brokers, logger, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func NewPaperAdapterWithRand(wallets *wallet.Service, brokers *broker.Catalog, logger *slog.Logger, rnd *rand.Rand) *PaperAdapter {
	return &PaperAdapter{
		wallets: wallets,
		brokers: brokers,
		logger:  logger,
		rnd:     rnd,
	}
}

// slippagePrice perturbs the market price by a factor in
// [0.999, 1.001) and rounds to cents.
func (a *PaperAdapter) slippagePrice(marketPrice decimal.Decimal) decimal.Decimal {
	a.mu.Lock()
	factor := 1 + (a.rnd.Float64()*0.002 - 0.001)
	a.mu.Unlock()
	return marketPrice.Mul(decimal.NewFromFloat(factor)).Round(2)
}

func (a *PaperAdapter) ExecuteOrder(ctx context.Context, order *entity.Order, marketPrice decimal.Decimal) (Execution, error) {
	execPrice := a.slippagePrice(marketPrice)
	fee := a.brokers.CalculateFee(order.Amount, execPrice, broker.RoleTaker, order.BrokerId)

	var exec Execution
	var err error
	switch order.Side {
	case entity.SideBuy:
		exec, err = a.settleBuy(ctx, order, execPrice, fee)
	case entity.SideSell:
		exec, err = a.settleSell(ctx, order, execPrice, fee)
	default:
		return Execution{}, fmt.Errorf("unknown order side %q", order.Side)
	}
	if err != nil {
		return Execution{}, err
	}

	if err = a.wallets.LogTradeTransaction(ctx, order.UserId, order.Side, order.Symbol, exec.FilledAmount, exec.Price); err != nil {
		a.logger.Error("log trade transaction",
			slog.String("orderId", order.Id), slog.Any("err", err))
	}
	a.logger.Info("order executed",
		slog.String("orderId", order.Id),
		slog.String("side", string(order.Side)),
		slog.String("symbol", order.Symbol),
		slog.String("price", exec.Price.String()),
		slog.String("fee", exec.Fee.String()))
	return exec, nil
}

// settleBuy spends amount*price USD and credits the asset net of the
// fee. The USD leg must already be locked by the caller.
func (a *PaperAdapter) settleBuy(ctx context.Context, order *entity.Order, execPrice, fee decimal.Decimal) (Execution, error) {
	cost := order.Amount.Mul(execPrice)
	if err := a.wallets.DeductFunds(ctx, order.UserId, usdCurrency, cost); err != nil {
		return Execution{}, err
	}
	credited := cost.Sub(fee).Div(execPrice)
	if err := a.wallets.AddFunds(ctx, order.UserId, order.Symbol, credited); err != nil {
		return Execution{}, err
	}
	return Execution{
		Price:        execPrice,
		FilledAmount: credited,
		Fee:          fee,
		FeeAsset:     usdCurrency,
	}, nil
}

// settleSell debits the asset and credits the proceeds net of the fee,
// floored at zero so a flat fee can never drive the wallet negative.
func (a *PaperAdapter) settleSell(ctx context.Context, order *entity.Order, execPrice, fee decimal.Decimal) (Execution, error) {
	if err := a.wallets.DeductFunds(ctx, order.UserId, order.Symbol, order.Amount); err != nil {
		return Execution{}, err
	}
	earnings := decimal.Max(decimal.Zero, order.Amount.Mul(execPrice).Sub(fee))
	if err := a.wallets.AddFunds(ctx, order.UserId, usdCurrency, earnings); err != nil {
		return Execution{}, err
	}
	return Execution{
		Price:        execPrice,
		FilledAmount: order.Amount,
		Fee:          fee,
		FeeAsset:     usdCurrency,
	}, nil
}

func (a *PaperAdapter) CancelOrder(ctx context.Context, order *entity.Order) error {
	// Nothing rests at a venue in paper trading.
	return nil
}
