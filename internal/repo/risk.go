package repo

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RiskRepo interface {
	FindByUser(ctx context.Context, userId string) (*entity.RiskSettings, error)
	Save(ctx context.Context, settings *entity.RiskSettings) error
	// ResetAll zeroes every user's daily loss counter.
	ResetAll(ctx context.Context, resetAt time.Time) error
}

type riskRepo struct {
	db *gorm.DB
}

func NewRiskRepo(db *gorm.DB) RiskRepo {
	return &riskRepo{db: db}
}

func (r *riskRepo) FindByUser(ctx context.Context, userId string) (*entity.RiskSettings, error) {
	var settings entity.RiskSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *riskRepo) Save(ctx context.Context, settings *entity.RiskSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

func (r *riskRepo) ResetAll(ctx context.Context, resetAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.RiskSettings{}).
		Where("1 = 1").
		Updates(map[string]any{
			"daily_loss_used": decimal.Zero,
			"last_reset_date": resetAt,
		}).Error
}
