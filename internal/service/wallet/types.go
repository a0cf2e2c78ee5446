package wallet

import (
	"github.com/KNICEX/trading-sim/pkg/errs"
	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound    = errs.New("WALLET_NOT_FOUND", "wallet not found")
	ErrInsufficientFunds = errs.New("INSUFFICIENT_FUNDS", "insufficient funds")
	ErrInvalidAmount     = errs.New("INVALID_AMOUNT", "amount must be positive")
)

type Balance struct {
	Currency  string
	Balance   decimal.Decimal
	Locked    decimal.Decimal
	Available decimal.Decimal
}

// Holding is one currency line of a portfolio valuation.
type Holding struct {
	Currency string
	Amount   decimal.Decimal
	Price    decimal.Decimal
	UsdValue decimal.Decimal
}

type PortfolioSummary struct {
	Holdings      []Holding
	TotalUsdValue decimal.Decimal
}
