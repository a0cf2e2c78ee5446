package repo

import (
	"context"
	"errors"

	"github.com/KNICEX/trading-sim/internal/entity"
	"gorm.io/gorm"
)

// OrderRepo lookups return (nil, nil) when no row matches; callers map
// that to their own not-found error.
type OrderRepo interface {
	Create(ctx context.Context, order *entity.Order) error
	Save(ctx context.Context, order *entity.Order) error
	FindById(ctx context.Context, id string) (*entity.Order, error)
	FindByUser(ctx context.Context, userId string) ([]entity.Order, error)
	FindAll(ctx context.Context) ([]entity.Order, error)
	// FindOpenPositions returns FILLED BUY orders with no close reason.
	FindOpenPositions(ctx context.Context) ([]entity.Order, error)
	// FindOpenLimit returns OPEN LIMIT orders, optionally for one symbol.
	FindOpenLimit(ctx context.Context, symbol string) ([]entity.Order, error)
	// FindOpenGTD returns OPEN orders with TimeInForce GTD.
	FindOpenGTD(ctx context.Context) ([]entity.Order, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepo {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) Save(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepo) FindById(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByUser(ctx context.Context, userId string) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindAll(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindOpenPositions(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND side = ? AND close_reason = ?", entity.OrderStatusFilled, entity.SideBuy, "").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindOpenLimit(ctx context.Context, symbol string) ([]entity.Order, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND type = ?", entity.OrderStatusOpen, entity.OrderTypeLimit)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	var orders []entity.Order
	err := q.Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindOpenGTD(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND time_in_force = ?", entity.OrderStatusOpen, entity.TimeInForceGTD).
		Find(&orders).Error
	return orders, err
}
