package exchange

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/KNICEX/trading-sim/internal/repo"
	"github.com/KNICEX/trading-sim/internal/service/broker"
	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/internal/service/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (*PaperAdapter, *wallet.Service) {
	t.Helper()
	wallets := wallet.NewService(repo.NewMemoryWalletRepo(), repo.NewMemoryTransactionRepo(), market.NewMemorySource())
	adapter := NewPaperAdapterWithRand(wallets, broker.NewCatalog(), slog.Default(), rand.New(rand.NewSource(42)))
	return adapter, wallets
}

func TestPaperAdapter_SlippageBounds(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	base := decimal.NewFromInt(50000)
	lo := base.Mul(decimal.NewFromFloat(0.999))
	hi := base.Mul(decimal.NewFromFloat(1.001))

	for i := 0; i < 200; i++ {
		p := adapter.slippagePrice(base)
		assert.True(t, p.GreaterThanOrEqual(lo.Round(2)) && p.LessThanOrEqual(hi.Round(2)), "price %s out of band", p)
		assert.True(t, p.Equal(p.Round(2)), "price %s not rounded to cents", p)
	}
}

func TestPaperAdapter_ExecuteBuy(t *testing.T) {
	adapter, wallets := newTestAdapter(t)
	ctx := context.Background()

	_, err := wallets.Deposit(ctx, "u1", "USD", decimal.NewFromInt(100000))
	require.NoError(t, err)
	require.NoError(t, wallets.LockFunds(ctx, "u1", "USD", decimal.NewFromInt(51000)))

	order := &entity.Order{
		Id:       "o1",
		UserId:   "u1",
		Symbol:   "BTC",
		Side:     entity.SideBuy,
		Amount:   decimal.NewFromInt(1),
		BrokerId: "binance",
	}
	exec, err := adapter.ExecuteOrder(ctx, order, decimal.NewFromInt(50000))
	require.NoError(t, err)

	cost := exec.Price
	assert.True(t, exec.Fee.Equal(exec.Price.Mul(decimal.NewFromFloat(0.001))))
	assert.True(t, exec.FilledAmount.Equal(cost.Sub(exec.Fee).Div(exec.Price)))

	balances, err := wallets.Balances(ctx, "u1")
	require.NoError(t, err)
	byCurrency := map[string]decimal.Decimal{}
	for _, b := range balances {
		byCurrency[b.Currency] = b.Balance
	}
	assert.True(t, byCurrency["USD"].Equal(decimal.NewFromInt(100000).Sub(cost)))
	assert.True(t, byCurrency["BTC"].Equal(exec.FilledAmount))

	txs, err := wallets.Transactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, entity.TransactionTypeTradeBuy, txs[0].Type)
}

func TestPaperAdapter_ExecuteSellFloorsAtZero(t *testing.T) {
	adapter, wallets := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, wallets.AddFunds(ctx, "u1", "BTC", decimal.NewFromFloat(0.001)))

	// Flat 2.0 taker fee exceeds the tiny proceeds.
	order := &entity.Order{
		Id:       "o1",
		UserId:   "u1",
		Symbol:   "BTC",
		Side:     entity.SideSell,
		Amount:   decimal.NewFromFloat(0.001),
		BrokerId: "fixed_example",
	}
	exec, err := adapter.ExecuteOrder(ctx, order, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.True(t, exec.Fee.Equal(decimal.NewFromInt(2)))

	balances, err := wallets.Balances(ctx, "u1")
	require.NoError(t, err)
	for _, b := range balances {
		if b.Currency == "USD" {
			assert.True(t, b.Balance.IsZero(), "usd balance = %s", b.Balance)
		}
		if b.Currency == "BTC" {
			assert.True(t, b.Balance.IsZero())
		}
	}
}

func TestPaperAdapter_BuyInsufficientFundsLeavesWalletUntouched(t *testing.T) {
	adapter, wallets := newTestAdapter(t)
	ctx := context.Background()

	_, err := wallets.Deposit(ctx, "u1", "USD", decimal.NewFromInt(100))
	require.NoError(t, err)

	order := &entity.Order{
		Id:       "o1",
		UserId:   "u1",
		Symbol:   "BTC",
		Side:     entity.SideBuy,
		Amount:   decimal.NewFromInt(1),
		BrokerId: "binance",
	}
	_, err = adapter.ExecuteOrder(ctx, order, decimal.NewFromInt(50000))
	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	balances, err := wallets.Balances(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(decimal.NewFromInt(100)))
}
