package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/KNICEX/trading-sim/internal/repo"
	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Service owns all balance mutations. Locked funds are still part of
// Balance; Available = Balance - Locked. Nothing outside this package
// writes wallets directly.
type Service struct {
	walletRepo repo.WalletRepo
	txRepo     repo.TransactionRepo
	prices     market.PriceSource
}

func NewService(walletRepo repo.WalletRepo, txRepo repo.TransactionRepo, prices market.PriceSource) *Service {
	return &Service{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		prices:     prices,
	}
}

func (s *Service) findOrCreate(ctx context.Context, userId, currency string) (*entity.Wallet, error) {
	w, err := s.walletRepo.FindByUserAndCurrency(ctx, userId, currency)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = &entity.Wallet{
			UserId:   userId,
			Currency: currency,
			Balance:  decimal.Zero,
			Locked:   decimal.Zero,
		}
	}
	return w, nil
}

func (s *Service) Deposit(ctx context.Context, userId, currency string, amount decimal.Decimal) (*entity.Wallet, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	w, err := s.findOrCreate(ctx, userId, currency)
	if err != nil {
		return nil, err
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now()
	if err = s.walletRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	err = s.txRepo.Create(ctx, &entity.Transaction{
		UserId:    userId,
		Type:      entity.TransactionTypeDeposit,
		Amount:    amount,
		Currency:  currency,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) Withdraw(ctx context.Context, userId, currency string, amount decimal.Decimal) (*entity.Wallet, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	w, err := s.walletRepo.FindByUserAndCurrency(ctx, userId, currency)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}
	if w.Available().LessThan(amount) {
		return nil, fmt.Errorf("%w: available %s %s, requested %s",
			ErrInsufficientFunds, w.Available(), currency, amount)
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now()
	if err = s.walletRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	err = s.txRepo.Create(ctx, &entity.Transaction{
		UserId:    userId,
		Type:      entity.TransactionTypeWithdrawal,
		Amount:    amount,
		Currency:  currency,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) Balances(ctx context.Context, userId string) ([]Balance, error) {
	wallets, err := s.walletRepo.FindByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	return lo.Map(wallets, func(w entity.Wallet, _ int) Balance {
		return Balance{
			Currency:  w.Currency,
			Balance:   w.Balance,
			Locked:    w.Locked,
			Available: w.Available(),
		}
	}), nil
}

// LockFunds reserves amount for a pending order. The funds stay in
// Balance but are no longer available.
func (s *Service) LockFunds(ctx context.Context, userId, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	w, err := s.walletRepo.FindByUserAndCurrency(ctx, userId, currency)
	if err != nil {
		return err
	}
	if w == nil {
		return ErrWalletNotFound
	}
	if w.Available().LessThan(amount) {
		return fmt.Errorf("%w: available %s %s, need %s",
			ErrInsufficientFunds, w.Available(), currency, amount)
	}
	w.Locked = w.Locked.Add(amount)
	w.UpdatedAt = time.Now()
	return s.walletRepo.Save(ctx, w)
}

// UnlockFunds releases a prior reservation. The release is clamped to
// the current lock so a double release can never drive Locked negative.
func (s *Service) UnlockFunds(ctx context.Context, userId, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	w, err := s.walletRepo.FindByUserAndCurrency(ctx, userId, currency)
	if err != nil {
		return err
	}
	if w == nil {
		return ErrWalletNotFound
	}
	w.Locked = decimal.Max(decimal.Zero, w.Locked.Sub(amount))
	w.UpdatedAt = time.Now()
	return s.walletRepo.Save(ctx, w)
}

// DeductFunds consumes previously locked funds at settlement: both
// Balance and Locked drop by amount.
func (s *Service) DeductFunds(ctx context.Context, userId, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	w, err := s.walletRepo.FindByUserAndCurrency(ctx, userId, currency)
	if err != nil {
		return err
	}
	if w == nil {
		return ErrWalletNotFound
	}
	if w.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s %s, deducting %s",
			ErrInsufficientFunds, w.Balance, currency, amount)
	}
	w.Balance = w.Balance.Sub(amount)
	w.Locked = decimal.Max(decimal.Zero, w.Locked.Sub(amount))
	w.UpdatedAt = time.Now()
	return s.walletRepo.Save(ctx, w)
}

func (s *Service) AddFunds(ctx context.Context, userId, currency string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}
	w, err := s.findOrCreate(ctx, userId, currency)
	if err != nil {
		return err
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now()
	return s.walletRepo.Save(ctx, w)
}

// PortfolioSummary values every holding in USD. USD and USDT are pegged
// at 1, everything else is quoted live; assets without a quote are
// valued at zero rather than failing the whole summary.
func (s *Service) PortfolioSummary(ctx context.Context, userId string) (PortfolioSummary, error) {
	wallets, err := s.walletRepo.FindByUser(ctx, userId)
	if err != nil {
		return PortfolioSummary{}, err
	}

	summary := PortfolioSummary{
		Holdings:      make([]Holding, 0, len(wallets)),
		TotalUsdValue: decimal.Zero,
	}
	for _, w := range wallets {
		if w.Balance.IsZero() {
			continue
		}
		price := decimal.NewFromInt(1)
		if w.Currency != "USD" && w.Currency != "USDT" {
			quote, err := s.prices.GetPrice(ctx, w.Currency)
			if err != nil {
				price = decimal.Zero
			} else {
				price = quote.Price
			}
		}
		value := w.Balance.Mul(price)
		summary.Holdings = append(summary.Holdings, Holding{
			Currency: w.Currency,
			Amount:   w.Balance,
			Price:    price,
			UsdValue: value,
		})
		summary.TotalUsdValue = summary.TotalUsdValue.Add(value)
	}
	return summary, nil
}

// LogTradeTransaction records a settled trade leg in the ledger.
func (s *Service) LogTradeTransaction(ctx context.Context, userId string, side entity.Side, symbol string, amount, price decimal.Decimal) error {
	txType := entity.TransactionTypeTradeBuy
	if side == entity.SideSell {
		txType = entity.TransactionTypeTradeSell
	}
	return s.txRepo.Create(ctx, &entity.Transaction{
		UserId:    userId,
		Type:      txType,
		Amount:    amount,
		Currency:  symbol,
		Price:     price,
		CreatedAt: time.Now(),
	})
}

func (s *Service) Transactions(ctx context.Context, userId string) ([]entity.Transaction, error) {
	return s.txRepo.FindByUser(ctx, userId)
}
