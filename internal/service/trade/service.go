package trade

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/KNICEX/trading-sim/internal/repo"
	"github.com/KNICEX/trading-sim/internal/service/exchange"
	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/internal/service/notification"
	"github.com/KNICEX/trading-sim/internal/service/risk"
	"github.com/KNICEX/trading-sim/internal/service/wallet"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const usdCurrency = "USD"

const leaderboardSize = 50

// Service owns the order lifecycle. Every transition of a single order
// runs under that order's mutex, so concurrent triggers, cancels and
// fills serialize instead of double-settling.
type Service struct {
	orderRepo repo.OrderRepo
	wallets   *wallet.Service
	riskSvc   *risk.Service
	adapter   exchange.Adapter
	prices    market.PriceSource
	notifier  notification.Channel
	logger    *slog.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewService(
	orderRepo repo.OrderRepo,
	wallets *wallet.Service,
	riskSvc *risk.Service,
	adapter exchange.Adapter,
	prices market.PriceSource,
	notifier notification.Channel,
	logger *slog.Logger,
) *Service {
	return &Service{
		orderRepo: orderRepo,
		wallets:   wallets,
		riskSvc:   riskSvc,
		adapter:   adapter,
		prices:    prices,
		notifier:  notifier,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Service) orderLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

func (s *Service) lockOrder(id string) func() {
	mu := s.orderLock(id)
	mu.Lock()
	return mu.Unlock
}

// lockPair acquires both order mutexes in id order so two goroutines
// closing an OCO pair from opposite ends cannot deadlock.
func (s *Service) lockPair(a, b string) func() {
	if b == "" || a == b {
		return s.lockOrder(a)
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	mu1, mu2 := s.orderLock(first), s.orderLock(second)
	mu1.Lock()
	mu2.Lock()
	return func() {
		mu2.Unlock()
		mu1.Unlock()
	}
}

func (s *Service) validateSpec(spec OrderSpec, refPrice decimal.Decimal) error {
	if spec.UserId == "" || spec.Symbol == "" {
		return fmt.Errorf("%w: userId and symbol are required", ErrInvalidOrder)
	}
	if !spec.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidOrder)
	}
	if spec.Side != entity.SideBuy && spec.Side != entity.SideSell {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, spec.Side)
	}
	if spec.Type != entity.OrderTypeMarket && spec.Type != entity.OrderTypeLimit {
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, spec.Type)
	}
	if spec.Type == entity.OrderTypeLimit && !spec.LimitPrice.IsPositive() {
		return fmt.Errorf("%w: limit orders need a positive limit price", ErrInvalidOrder)
	}
	if !refPrice.IsPositive() {
		return fmt.Errorf("%w: reference price %s must be positive", ErrInvalidOrder, refPrice)
	}
	// Protective exits guard long positions. On buys they are validated
	// against the entry price; on plain sells they are rejected so a
	// stray StopLoss cannot silently turn the order into a stop leg.
	if spec.Side == entity.SideBuy {
		if !spec.StopLoss.IsZero() && spec.StopLoss.GreaterThanOrEqual(refPrice) {
			return fmt.Errorf("%w: stop loss %s must be below entry price %s", ErrInvalidOrder, spec.StopLoss, refPrice)
		}
		if !spec.TakeProfit.IsZero() && spec.TakeProfit.LessThanOrEqual(refPrice) {
			return fmt.Errorf("%w: take profit %s must be above entry price %s", ErrInvalidOrder, spec.TakeProfit, refPrice)
		}
		if !spec.StopLoss.IsZero() && !spec.TakeProfit.IsZero() && spec.StopLoss.GreaterThanOrEqual(spec.TakeProfit) {
			return fmt.Errorf("%w: stop loss must be below take profit", ErrInvalidOrder)
		}
	} else if !spec.ocoLeg {
		if !spec.StopLoss.IsZero() || !spec.TakeProfit.IsZero() || !spec.TrailingStopPercent.IsZero() {
			return fmt.Errorf("%w: protective exits apply to buy orders only", ErrInvalidOrder)
		}
	}
	if !spec.TrailingStopPercent.IsZero() {
		if spec.TrailingStopPercent.IsNegative() || spec.TrailingStopPercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: trailing stop percent must be in (0, 100)", ErrInvalidOrder)
		}
	}
	if spec.TimeInForce == entity.TimeInForceGTD {
		if spec.ExpiresAt == nil || !spec.ExpiresAt.After(time.Now()) {
			return fmt.Errorf("%w: GTD orders need a future expiry", ErrInvalidOrder)
		}
	}
	return nil
}

// PlaceOrder validates, risk-checks, locks funds and either executes
// (MARKET) or parks the order for the monitor (LIMIT).
func (s *Service) PlaceOrder(ctx context.Context, spec OrderSpec) (*entity.Order, error) {
	quote, err := s.prices.GetPrice(ctx, spec.Symbol)
	if err != nil {
		return nil, err
	}
	refPrice := quote.Price
	if spec.Type == entity.OrderTypeLimit {
		refPrice = spec.LimitPrice
	}
	if err = s.validateSpec(spec, refPrice); err != nil {
		return nil, err
	}

	if err = s.riskSvc.CheckDailyLoss(ctx, spec.UserId); err != nil {
		return nil, err
	}
	summary, err := s.wallets.PortfolioSummary(ctx, spec.UserId)
	if err != nil {
		return nil, err
	}
	notional := spec.Amount.Mul(refPrice)
	if err = s.riskSvc.CheckPositionSize(ctx, spec.UserId, notional, summary.TotalUsdValue); err != nil {
		return nil, err
	}

	if err = s.lockForOrder(ctx, spec, refPrice); err != nil {
		return nil, err
	}

	tif := spec.TimeInForce
	if tif == "" {
		tif = entity.TimeInForceGTC
	}
	order := &entity.Order{
		Id:                  uuid.NewString(),
		UserId:              spec.UserId,
		Symbol:              spec.Symbol,
		Amount:              spec.Amount,
		Price:               refPrice,
		Side:                spec.Side,
		Type:                spec.Type,
		Status:              entity.OrderStatusOpen,
		StopLoss:            spec.StopLoss,
		TakeProfit:          spec.TakeProfit,
		TrailingStopPercent: spec.TrailingStopPercent,
		BrokerId:            spec.BrokerId,
		TimeInForce:         tif,
		ExpiresAt:           spec.ExpiresAt,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	if err = s.orderRepo.Create(ctx, order); err != nil {
		s.compensateUnlock(ctx, order)
		return nil, err
	}

	if spec.Type == entity.OrderTypeMarket || tif == entity.TimeInForceIOC {
		defer s.lockOrder(order.Id)()
		// Re-read under the lock; a concurrent price update may already
		// have filled the order between Create and here.
		order, err = s.orderRepo.FindById(ctx, order.Id)
		if err != nil {
			return nil, err
		}
		if order == nil || order.Status != entity.OrderStatusOpen {
			return order, nil
		}
		if spec.Type == entity.OrderTypeMarket || marketable(order, quote.Price) {
			if err = s.executeOrder(ctx, order, quote.Price); err != nil {
				return nil, err
			}
		} else {
			// An IOC limit order that is not marketable right now dies.
			s.cancelLocked(ctx, order, entity.OrderStatusCancelled, "")
		}
	}
	return order, nil
}

// lockForOrder reserves the funds an order will consume: quote currency
// for buys, the asset itself for sells.
func (s *Service) lockForOrder(ctx context.Context, spec OrderSpec, refPrice decimal.Decimal) error {
	if spec.Side == entity.SideBuy {
		return s.wallets.LockFunds(ctx, spec.UserId, usdCurrency, spec.Amount.Mul(refPrice))
	}
	return s.wallets.LockFunds(ctx, spec.UserId, spec.Symbol, spec.Amount)
}

func (s *Service) compensateUnlock(ctx context.Context, order *entity.Order) {
	var err error
	if order.Side == entity.SideBuy {
		err = s.wallets.UnlockFunds(ctx, order.UserId, usdCurrency, order.Notional())
	} else {
		err = s.wallets.UnlockFunds(ctx, order.UserId, order.Symbol, order.Amount)
	}
	if err != nil {
		s.logger.Error("compensating unlock",
			slog.String("orderId", order.Id), slog.Any("err", err))
	}
}

func marketable(order *entity.Order, marketPrice decimal.Decimal) bool {
	if order.Side == entity.SideBuy {
		return marketPrice.LessThanOrEqual(order.Price)
	}
	// A sell leg carrying a stop marker fires when the price falls to
	// its level; a plain limit sell fires when the price rises to it.
	if !order.StopLoss.IsZero() {
		return marketPrice.LessThanOrEqual(order.Price)
	}
	return marketPrice.GreaterThanOrEqual(order.Price)
}

// executeOrder settles the order through the adapter. The caller must
// hold the order's mutex. On adapter failure the reservation is
// released and the order is cancelled.
func (s *Service) executeOrder(ctx context.Context, order *entity.Order, marketPrice decimal.Decimal) error {
	lockedNotional := order.Notional()

	exec, err := s.adapter.ExecuteOrder(ctx, order, marketPrice)
	if err != nil {
		s.compensateUnlock(ctx, order)
		order.Status = entity.OrderStatusCancelled
		order.UpdatedAt = time.Now()
		if saveErr := s.orderRepo.Save(ctx, order); saveErr != nil {
			s.logger.Error("save failed order", slog.String("orderId", order.Id), slog.Any("err", saveErr))
		}
		return fmt.Errorf("%w: %s", ErrTradeExecutionFailed, err)
	}

	// The reservation was taken at the placement price; slippage can
	// leave part of it behind, which is released here.
	if order.Side == entity.SideBuy {
		actualCost := order.Amount.Mul(exec.Price)
		if excess := lockedNotional.Sub(actualCost); excess.IsPositive() {
			if err = s.wallets.UnlockFunds(ctx, order.UserId, usdCurrency, excess); err != nil {
				s.logger.Error("release excess lock", slog.String("orderId", order.Id), slog.Any("err", err))
			}
		}
	}

	order.Status = entity.OrderStatusFilled
	order.FilledAmount = exec.FilledAmount
	order.Price = exec.Price
	order.Fee = exec.Fee
	order.FeeAsset = exec.FeeAsset
	if order.Side == entity.SideBuy {
		// Seed the trailing peak at the entry price.
		order.HighestPrice = exec.Price
	}
	order.UpdatedAt = time.Now()
	if err = s.orderRepo.Save(ctx, order); err != nil {
		return err
	}

	s.notifier.EmitOrderUpdate(notification.OrderUpdate{
		OrderId: order.Id,
		UserId:  order.UserId,
		Symbol:  order.Symbol,
		Status:  order.Status,
		Price:   order.Price,
		At:      time.Now(),
	})
	s.notifier.EmitTradeAlert(notification.TradeAlert{
		UserId:  order.UserId,
		Symbol:  order.Symbol,
		Side:    order.Side,
		Amount:  order.FilledAmount,
		Price:   order.Price,
		Message: fmt.Sprintf("%s %s %s @ %s", order.Side, order.FilledAmount, order.Symbol, order.Price),
		At:      time.Now(),
	})
	return nil
}

// CancelOrder cancels a resting order and releases its reservation.
// Only OPEN orders can be cancelled.
func (s *Service) CancelOrder(ctx context.Context, userId, orderId string) (*entity.Order, error) {
	order, err := s.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserId != userId {
		return nil, ErrOrderNotFound
	}

	unlock := s.lockPair(order.Id, order.LinkedOrderId)
	defer unlock()

	// Re-read under the lock; the monitor may have filled it meanwhile.
	order, err = s.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserId != userId {
		return nil, ErrOrderNotFound
	}
	if order.Status != entity.OrderStatusOpen {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotCancellable, order.Status)
	}

	if err = s.adapter.CancelOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTradeExecutionFailed, err)
	}
	s.cancelLocked(ctx, order, entity.OrderStatusCancelled, "")

	if order.LinkedOrderId != "" {
		if err = s.cancelSiblingLocked(ctx, order.LinkedOrderId); err != nil {
			s.logger.Error("cancel oco sibling",
				slog.String("orderId", order.Id), slog.Any("err", err))
		}
	}
	return order, nil
}

// cancelLocked releases the order's reservation and finalizes it. The
// caller must hold the order's mutex.
func (s *Service) cancelLocked(ctx context.Context, order *entity.Order, status entity.OrderStatus, reason entity.CloseReason) {
	s.compensateUnlock(ctx, order)
	order.Status = status
	order.CloseReason = reason
	order.UpdatedAt = time.Now()
	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.logger.Error("save cancelled order", slog.String("orderId", order.Id), slog.Any("err", err))
		return
	}
	s.notifier.EmitOrderUpdate(notification.OrderUpdate{
		OrderId:     order.Id,
		UserId:      order.UserId,
		Symbol:      order.Symbol,
		Status:      order.Status,
		CloseReason: order.CloseReason,
		Price:       order.Price,
		At:          time.Now(),
	})
}

// PlaceOCO places two limit orders for the same user linked so that
// filling or cancelling either cancels the other.
func (s *Service) PlaceOCO(ctx context.Context, spec OCOSpec) (*entity.Order, *entity.Order, error) {
	if spec.First.UserId != spec.Second.UserId {
		return nil, nil, fmt.Errorf("%w: OCO legs must belong to one user", ErrInvalidOrder)
	}
	if spec.First.Type != entity.OrderTypeLimit || spec.Second.Type != entity.OrderTypeLimit {
		return nil, nil, fmt.Errorf("%w: OCO legs must be limit orders", ErrInvalidOrder)
	}
	if spec.First.TimeInForce == entity.TimeInForceIOC || spec.Second.TimeInForce == entity.TimeInForceIOC {
		return nil, nil, fmt.Errorf("%w: OCO legs cannot be IOC", ErrInvalidOrder)
	}
	spec.First.ocoLeg = true
	spec.Second.ocoLeg = true

	first, err := s.PlaceOrder(ctx, spec.First)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.PlaceOrder(ctx, spec.Second)
	if err != nil {
		// Roll the first leg back so no half-pair rests.
		if _, cancelErr := s.CancelOrder(ctx, first.UserId, first.Id); cancelErr != nil {
			s.logger.Error("roll back oco first leg",
				slog.String("orderId", first.Id), slog.Any("err", cancelErr))
		}
		return nil, nil, err
	}

	unlock := s.lockPair(first.Id, second.Id)
	defer unlock()
	first.LinkedOrderId = second.Id
	second.LinkedOrderId = first.Id
	first.UpdatedAt = time.Now()
	second.UpdatedAt = time.Now()
	if err = s.orderRepo.Save(ctx, first); err != nil {
		return nil, nil, err
	}
	if err = s.orderRepo.Save(ctx, second); err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// PlaceOCOSell protects a held asset with a linked pair: a stop leg
// that sells when the price falls to stopLossPrice and a take-profit
// leg that sells when it rises to takeProfitPrice.
func (s *Service) PlaceOCOSell(ctx context.Context, userId, symbol string, amount, stopLossPrice, takeProfitPrice decimal.Decimal, brokerId string) (*entity.Order, *entity.Order, error) {
	quote, err := s.prices.GetPrice(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	if !stopLossPrice.IsPositive() || !takeProfitPrice.IsPositive() {
		return nil, nil, fmt.Errorf("%w: OCO prices must be positive", ErrInvalidOrder)
	}
	if stopLossPrice.GreaterThanOrEqual(quote.Price) {
		return nil, nil, fmt.Errorf("%w: stop loss %s must be below market price %s", ErrInvalidOrder, stopLossPrice, quote.Price)
	}
	if takeProfitPrice.LessThanOrEqual(quote.Price) {
		return nil, nil, fmt.Errorf("%w: take profit %s must be above market price %s", ErrInvalidOrder, takeProfitPrice, quote.Price)
	}

	return s.PlaceOCO(ctx, OCOSpec{
		First: OrderSpec{
			UserId: userId, Symbol: symbol, Side: entity.SideSell, Type: entity.OrderTypeLimit,
			Amount: amount, LimitPrice: stopLossPrice, StopLoss: stopLossPrice, BrokerId: brokerId,
		},
		Second: OrderSpec{
			UserId: userId, Symbol: symbol, Side: entity.SideSell, Type: entity.OrderTypeLimit,
			Amount: amount, LimitPrice: takeProfitPrice, BrokerId: brokerId,
		},
	})
}

// ClosePosition sells a filled position back at the current market
// price and stamps the close reason and realized pnl on the original
// order. Pnl is the raw price move times the ordered amount; fees are
// tracked separately on the settlement.
func (s *Service) ClosePosition(ctx context.Context, orderId string, reason entity.CloseReason, marketPrice decimal.Decimal) error {
	order, err := s.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	unlock := s.lockPair(order.Id, order.LinkedOrderId)
	defer unlock()

	// Re-read under the lock; a concurrent trigger may have won.
	order, err = s.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return err
	}
	if order == nil || !order.OpenPosition() {
		return nil
	}

	entryPrice := order.Price
	held := order.FilledAmount
	if held.IsZero() {
		held = order.Amount
	}

	if err = s.wallets.LockFunds(ctx, order.UserId, order.Symbol, held); err != nil {
		return err
	}
	sellOrder := &entity.Order{
		Id:          uuid.NewString(),
		UserId:      order.UserId,
		Symbol:      order.Symbol,
		Amount:      held,
		Price:       marketPrice,
		Side:        entity.SideSell,
		Type:        entity.OrderTypeMarket,
		Status:      entity.OrderStatusOpen,
		BrokerId:    order.BrokerId,
		TimeInForce: entity.TimeInForceGTC,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err = s.orderRepo.Create(ctx, sellOrder); err != nil {
		s.compensateUnlock(ctx, sellOrder)
		return err
	}
	if err = s.executeOrder(ctx, sellOrder, marketPrice); err != nil {
		return err
	}

	order.CloseReason = reason
	order.Pnl = marketPrice.Sub(entryPrice).Mul(order.Amount)
	order.UpdatedAt = time.Now()
	if err = s.orderRepo.Save(ctx, order); err != nil {
		return err
	}

	if err = s.riskSvc.RecordLoss(ctx, order.UserId, order.Pnl); err != nil {
		s.logger.Error("record loss", slog.String("orderId", order.Id), slog.Any("err", err))
	}

	s.notifier.EmitOrderUpdate(notification.OrderUpdate{
		OrderId:     order.Id,
		UserId:      order.UserId,
		Symbol:      order.Symbol,
		Status:      order.Status,
		CloseReason: order.CloseReason,
		Price:       marketPrice,
		Pnl:         order.Pnl,
		At:          time.Now(),
	})

	if order.LinkedOrderId != "" {
		if err = s.cancelSiblingLocked(ctx, order.LinkedOrderId); err != nil {
			s.logger.Error("cancel oco sibling",
				slog.String("orderId", order.Id), slog.Any("err", err))
		}
	}
	return nil
}

// cancelSiblingLocked cancels the other leg of an OCO pair. The caller
// must already hold the pair lock.
func (s *Service) cancelSiblingLocked(ctx context.Context, siblingId string) error {
	sibling, err := s.orderRepo.FindById(ctx, siblingId)
	if err != nil {
		return err
	}
	if sibling == nil || sibling.Status != entity.OrderStatusOpen {
		return nil
	}
	s.cancelLocked(ctx, sibling, entity.OrderStatusCancelled, entity.CloseReasonOCOCancelled)
	return nil
}

// HandlePriceUpdate fills resting limit orders for symbol that became
// marketable at price. Each order fails or fills independently.
func (s *Service) HandlePriceUpdate(ctx context.Context, symbol string, price decimal.Decimal) {
	orders, err := s.orderRepo.FindOpenLimit(ctx, symbol)
	if err != nil {
		s.logger.Error("load open limit orders", slog.String("symbol", symbol), slog.Any("err", err))
		return
	}
	for i := range orders {
		order := orders[i]
		if !marketable(&order, price) {
			continue
		}
		if err = s.fillLimitOrder(ctx, order.Id, price); err != nil {
			s.logger.Error("fill limit order",
				slog.String("orderId", order.Id), slog.Any("err", err))
		}
	}
}

func (s *Service) fillLimitOrder(ctx context.Context, orderId string, price decimal.Decimal) error {
	order, err := s.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	unlock := s.lockPair(order.Id, order.LinkedOrderId)
	defer unlock()

	order, err = s.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return err
	}
	if order == nil || order.Status != entity.OrderStatusOpen || !marketable(order, price) {
		return nil
	}
	// A GTD order past its deadline expires instead of filling, even
	// when the price update arrives before the expiry sweep.
	if order.Expired(time.Now()) {
		s.cancelLocked(ctx, order, entity.OrderStatusExpired, entity.CloseReasonExpired)
		if order.LinkedOrderId != "" {
			return s.cancelSiblingLocked(ctx, order.LinkedOrderId)
		}
		return nil
	}
	if err = s.executeOrder(ctx, order, price); err != nil {
		return err
	}
	if order.LinkedOrderId != "" {
		return s.cancelSiblingLocked(ctx, order.LinkedOrderId)
	}
	return nil
}

func (s *Service) Orders(ctx context.Context, userId string) ([]entity.Order, error) {
	return s.orderRepo.FindByUser(ctx, userId)
}

func (s *Service) Order(ctx context.Context, userId, orderId string) (*entity.Order, error) {
	order, err := s.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserId != userId {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) OpenPositions(ctx context.Context, userId string) ([]entity.Order, error) {
	positions, err := s.orderRepo.FindOpenPositions(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(positions, func(o entity.Order, _ int) bool {
		return o.UserId == userId
	}), nil
}

// Performance aggregates realized pnl over the user's closed positions.
func (s *Service) Performance(ctx context.Context, userId string) (Performance, error) {
	orders, err := s.orderRepo.FindByUser(ctx, userId)
	if err != nil {
		return Performance{}, err
	}
	closed := lo.Filter(orders, func(o entity.Order, _ int) bool {
		return o.CloseReason != "" && o.Side == entity.SideBuy
	})
	perf := aggregate(closed)
	perf.TotalOrders = len(orders)
	return perf, nil
}

func aggregate(closed []entity.Order) Performance {
	perf := Performance{TotalTrades: len(closed)}
	if len(closed) == 0 {
		return perf
	}
	pnls := make([]float64, 0, len(closed))
	for i, o := range closed {
		perf.TotalPnl = perf.TotalPnl.Add(o.Pnl)
		if o.Pnl.IsPositive() {
			perf.Wins++
		} else {
			perf.Losses++
		}
		if i == 0 || o.Pnl.GreaterThan(perf.BestTrade) {
			perf.BestTrade = o.Pnl
		}
		if i == 0 || o.Pnl.LessThan(perf.WorstTrade) {
			perf.WorstTrade = o.Pnl
		}
		pnls = append(pnls, o.Pnl.InexactFloat64())
	}
	n := decimal.NewFromInt(int64(len(closed)))
	perf.WinRate = decimal.NewFromInt(int64(perf.Wins)).Div(n).Mul(decimal.NewFromInt(100))
	perf.AvgPnl = perf.TotalPnl.Div(n)

	if len(pnls) >= 2 {
		mean := perf.AvgPnl.InexactFloat64()
		var variance float64
		for _, p := range pnls {
			variance += (p - mean) * (p - mean)
		}
		variance /= float64(len(pnls) - 1)
		if stdev := math.Sqrt(variance); stdev > 0 {
			perf.SharpeRatio = decimal.NewFromFloat(mean / stdev)
		}
	}
	return perf
}

// Leaderboard ranks users by total realized pnl.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	orders, err := s.orderRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	closed := lo.Filter(orders, func(o entity.Order, _ int) bool {
		return o.CloseReason != "" && o.Side == entity.SideBuy
	})
	byUser := lo.GroupBy(closed, func(o entity.Order) string { return o.UserId })

	entries := make([]LeaderboardEntry, 0, len(byUser))
	for userId, userOrders := range byUser {
		perf := aggregate(userOrders)
		entries = append(entries, LeaderboardEntry{
			UserId:      userId,
			TotalPnl:    perf.TotalPnl,
			TotalTrades: perf.TotalTrades,
			WinRate:     perf.WinRate,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalPnl.GreaterThan(entries[j].TotalPnl)
	})
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
