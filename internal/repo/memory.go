package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// In-memory repo implementations. Used in tests and as the default
// store when no database is configured. Values are copied on the way in
// and out so callers never share entity pointers with the store.

type MemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]entity.Order
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{orders: make(map[string]entity.Order)}
}

func (r *MemoryOrderRepo) Create(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.Id] = *order
	return nil
}

func (r *MemoryOrderRepo) Save(ctx context.Context, order *entity.Order) error {
	return r.Create(ctx, order)
}

func (r *MemoryOrderRepo) FindById(ctx context.Context, id string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (r *MemoryOrderRepo) filter(pred func(entity.Order) bool) []entity.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Order, 0)
	for _, order := range r.orders {
		if pred(order) {
			out = append(out, order)
		}
	}
	return out
}

func (r *MemoryOrderRepo) FindByUser(ctx context.Context, userId string) ([]entity.Order, error) {
	orders := r.filter(func(o entity.Order) bool { return o.UserId == userId })
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (r *MemoryOrderRepo) FindAll(ctx context.Context) ([]entity.Order, error) {
	return r.filter(func(entity.Order) bool { return true }), nil
}

func (r *MemoryOrderRepo) FindOpenPositions(ctx context.Context) ([]entity.Order, error) {
	return r.filter(func(o entity.Order) bool {
		return o.Status == entity.OrderStatusFilled && o.Side == entity.SideBuy && o.CloseReason == ""
	}), nil
}

func (r *MemoryOrderRepo) FindOpenLimit(ctx context.Context, symbol string) ([]entity.Order, error) {
	return r.filter(func(o entity.Order) bool {
		if o.Status != entity.OrderStatusOpen || o.Type != entity.OrderTypeLimit {
			return false
		}
		return symbol == "" || o.Symbol == symbol
	}), nil
}

func (r *MemoryOrderRepo) FindOpenGTD(ctx context.Context) ([]entity.Order, error) {
	return r.filter(func(o entity.Order) bool {
		return o.Status == entity.OrderStatusOpen && o.TimeInForce == entity.TimeInForceGTD
	}), nil
}

type MemoryRiskRepo struct {
	mu       sync.RWMutex
	settings map[string]entity.RiskSettings
}

func NewMemoryRiskRepo() *MemoryRiskRepo {
	return &MemoryRiskRepo{settings: make(map[string]entity.RiskSettings)}
}

func (r *MemoryRiskRepo) FindByUser(ctx context.Context, userId string) (*entity.RiskSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	settings, ok := r.settings[userId]
	if !ok {
		return nil, nil
	}
	return &settings, nil
}

func (r *MemoryRiskRepo) Save(ctx context.Context, settings *entity.RiskSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[settings.UserId] = *settings
	return nil
}

func (r *MemoryRiskRepo) ResetAll(ctx context.Context, resetAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userId, settings := range r.settings {
		settings.DailyLossUsed = decimal.Zero
		settings.LastResetDate = resetAt
		r.settings[userId] = settings
	}
	return nil
}

type MemoryWalletRepo struct {
	mu      sync.RWMutex
	nextId  int64
	wallets map[string]entity.Wallet // key: userId/currency
}

func NewMemoryWalletRepo() *MemoryWalletRepo {
	return &MemoryWalletRepo{wallets: make(map[string]entity.Wallet)}
}

func walletKey(userId, currency string) string {
	return userId + "/" + currency
}

func (r *MemoryWalletRepo) FindByUserAndCurrency(ctx context.Context, userId, currency string) (*entity.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wallet, ok := r.wallets[walletKey(userId, currency)]
	if !ok {
		return nil, nil
	}
	return &wallet, nil
}

func (r *MemoryWalletRepo) FindByUser(ctx context.Context, userId string) ([]entity.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wallets := lo.Filter(lo.Values(r.wallets), func(w entity.Wallet, _ int) bool {
		return w.UserId == userId
	})
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Currency < wallets[j].Currency })
	return wallets, nil
}

func (r *MemoryWalletRepo) Save(ctx context.Context, wallet *entity.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wallet.Id == 0 {
		r.nextId++
		wallet.Id = r.nextId
	}
	r.wallets[walletKey(wallet.UserId, wallet.Currency)] = *wallet
	return nil
}

type MemoryTransactionRepo struct {
	mu     sync.RWMutex
	nextId int64
	txs    []entity.Transaction
}

func NewMemoryTransactionRepo() *MemoryTransactionRepo {
	return &MemoryTransactionRepo{}
}

func (r *MemoryTransactionRepo) Create(ctx context.Context, tx *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextId++
	tx.Id = r.nextId
	r.txs = append(r.txs, *tx)
	return nil
}

func (r *MemoryTransactionRepo) FindByUser(ctx context.Context, userId string) ([]entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txs := lo.Filter(r.txs, func(tx entity.Transaction, _ int) bool {
		return tx.UserId == userId
	})
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs, nil
}
