package wallet

import (
	"context"
	"testing"

	"github.com/KNICEX/trading-sim/internal/repo"
	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *market.MemorySource) {
	source := market.NewMemorySource()
	svc := NewService(repo.NewMemoryWalletRepo(), repo.NewMemoryTransactionRepo(), source)
	return svc, source
}

func TestService_DepositWithdraw(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	w, err := svc.Deposit(ctx, "u1", "USD", decimal.NewFromInt(10000))
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(10000)))

	w, err = svc.Withdraw(ctx, "u1", "USD", decimal.NewFromInt(4000))
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(6000)))

	_, err = svc.Withdraw(ctx, "u1", "USD", decimal.NewFromInt(7000))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = svc.Withdraw(ctx, "u1", "BTC", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrWalletNotFound)

	txs, err := svc.Transactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestService_DepositRejectsNonPositive(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Deposit(context.Background(), "u1", "USD", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestService_LockUnlockDeduct(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "u1", "USD", decimal.NewFromInt(1000))
	require.NoError(t, err)

	require.NoError(t, svc.LockFunds(ctx, "u1", "USD", decimal.NewFromInt(600)))

	// Only the unlocked remainder is spendable.
	err = svc.LockFunds(ctx, "u1", "USD", decimal.NewFromInt(500))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = svc.Withdraw(ctx, "u1", "USD", decimal.NewFromInt(500))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Settle part of the reservation, release the rest.
	require.NoError(t, svc.DeductFunds(ctx, "u1", "USD", decimal.NewFromInt(400)))
	require.NoError(t, svc.UnlockFunds(ctx, "u1", "USD", decimal.NewFromInt(200)))

	balances, err := svc.Balances(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(decimal.NewFromInt(600)))
	assert.True(t, balances[0].Locked.IsZero())
	assert.True(t, balances[0].Available.Equal(decimal.NewFromInt(600)))
}

func TestService_UnlockClampsAtZero(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "u1", "USD", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, svc.LockFunds(ctx, "u1", "USD", decimal.NewFromInt(50)))

	// Releasing more than is locked must not go negative.
	require.NoError(t, svc.UnlockFunds(ctx, "u1", "USD", decimal.NewFromInt(80)))

	balances, err := svc.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, balances[0].Locked.IsZero())
}

func TestService_PortfolioSummary(t *testing.T) {
	svc, source := newTestService()
	ctx := context.Background()

	source.SetPrice("BTC", decimal.NewFromInt(50000))

	_, err := svc.Deposit(ctx, "u1", "USD", decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, svc.AddFunds(ctx, "u1", "BTC", decimal.NewFromFloat(0.1)))

	summary, err := svc.PortfolioSummary(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, summary.TotalUsdValue.Equal(decimal.NewFromInt(6000)), "total = %s", summary.TotalUsdValue)
	assert.Len(t, summary.Holdings, 2)
}

func TestService_PortfolioSummary_UnquotedAssetWorthZero(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "u1", "USD", decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, svc.AddFunds(ctx, "u1", "MYSTERY", decimal.NewFromInt(5)))

	summary, err := svc.PortfolioSummary(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, summary.TotalUsdValue.Equal(decimal.NewFromInt(1000)), "total = %s", summary.TotalUsdValue)
}
