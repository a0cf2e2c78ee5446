package repo

import (
	"context"
	"errors"

	"github.com/KNICEX/trading-sim/internal/entity"
	"gorm.io/gorm"
)

type WalletRepo interface {
	FindByUserAndCurrency(ctx context.Context, userId, currency string) (*entity.Wallet, error)
	FindByUser(ctx context.Context, userId string) ([]entity.Wallet, error)
	Save(ctx context.Context, wallet *entity.Wallet) error
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	FindByUser(ctx context.Context, userId string) ([]entity.Transaction, error)
}

type walletRepo struct {
	db *gorm.DB
}

func NewWalletRepo(db *gorm.DB) WalletRepo {
	return &walletRepo{db: db}
}

func (r *walletRepo) FindByUserAndCurrency(ctx context.Context, userId, currency string) (*entity.Wallet, error) {
	var wallet entity.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND currency = ?", userId, currency).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepo) FindByUser(ctx context.Context, userId string) ([]entity.Wallet, error) {
	var wallets []entity.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).Find(&wallets).Error
	return wallets, err
}

func (r *walletRepo) Save(ctx context.Context, wallet *entity.Wallet) error {
	return r.db.WithContext(ctx).Save(wallet).Error
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepo {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, tx *entity.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepo) FindByUser(ctx context.Context, userId string) ([]entity.Transaction, error) {
	var txs []entity.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}
