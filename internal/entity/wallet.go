package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	Id       int64           `gorm:"primaryKey;autoIncrement"`
	UserId   string          `gorm:"index:idx_wallet_user_currency,unique"`
	Currency string          `gorm:"index:idx_wallet_user_currency,unique"`
	Balance  decimal.Decimal `gorm:"type:numeric"`
	// Locked is the portion of Balance reserved by open orders.
	Locked    decimal.Decimal `gorm:"type:numeric"`
	UpdatedAt time.Time
}

func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.Locked)
}

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTradeBuy   TransactionType = "TRADE_BUY"
	TransactionTypeTradeSell  TransactionType = "TRADE_SELL"
)

type Transaction struct {
	Id       int64  `gorm:"primaryKey;autoIncrement"`
	UserId   string `gorm:"index"`
	Type     TransactionType
	Amount   decimal.Decimal `gorm:"type:numeric"`
	Currency string
	// Price is the execution price for trade transactions, zero otherwise.
	Price     decimal.Decimal `gorm:"type:numeric"`
	CreatedAt time.Time       `gorm:"index"`
}
