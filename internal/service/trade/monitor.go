package trade

import (
	"context"
	"log/slog"
	"time"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Monitor watches open positions and resting orders. A periodic sweep
// is the safety net; a price feed, when wired, reacts between sweeps.
// One order failing never stops the rest of a sweep.
type Monitor struct {
	svc    *Service
	logger *slog.Logger
}

func NewMonitor(svc *Service, logger *slog.Logger) *Monitor {
	return &Monitor{svc: svc, logger: logger}
}

func (m *Monitor) Name() string {
	return "order-monitor"
}

// Run performs one full sweep: conditional triggers on open positions,
// marketable limit fills, then GTD expiry.
func (m *Monitor) Run(ctx context.Context) error {
	now := time.Now()
	m.checkPositions(ctx, now)
	m.checkLimitOrders(ctx)
	m.expireOrders(ctx, now)
	return nil
}

// StartFeed consumes streamed price updates until ctx is cancelled.
func (m *Monitor) StartFeed(ctx context.Context, feed market.Feed) error {
	ch, err := feed.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-ch:
			if !ok {
				return nil
			}
			m.OnPrice(ctx, update.Symbol, update.Price, update.At)
		}
	}
}

// OnPrice reacts to one price observation: fills marketable limit
// orders and evaluates triggers for every open position on the symbol.
func (m *Monitor) OnPrice(ctx context.Context, symbol string, price decimal.Decimal, now time.Time) {
	m.svc.HandlePriceUpdate(ctx, symbol, price)

	positions, err := m.svc.orderRepo.FindOpenPositions(ctx)
	if err != nil {
		m.logger.Error("load open positions", slog.Any("err", err))
		return
	}
	for _, pos := range positions {
		if pos.Symbol != symbol {
			continue
		}
		if err = m.evaluate(ctx, pos.Id, price, now); err != nil {
			m.logger.Error("evaluate position",
				slog.String("orderId", pos.Id), slog.Any("err", err))
		}
	}
}

func (m *Monitor) checkPositions(ctx context.Context, now time.Time) {
	positions, err := m.svc.orderRepo.FindOpenPositions(ctx)
	if err != nil {
		m.logger.Error("load open positions", slog.Any("err", err))
		return
	}
	for symbol, group := range lo.GroupBy(positions, func(o entity.Order) string { return o.Symbol }) {
		quote, err := m.svc.prices.GetPrice(ctx, symbol)
		if err != nil {
			m.logger.Error("quote symbol", slog.String("symbol", symbol), slog.Any("err", err))
			continue
		}
		for _, pos := range group {
			if err = m.evaluate(ctx, pos.Id, quote.Price, now); err != nil {
				m.logger.Error("evaluate position",
					slog.String("orderId", pos.Id), slog.Any("err", err))
			}
		}
	}
}

// evaluate applies the conditional rules to one open position at one
// observed price. Rules are checked in a fixed priority: trailing stop,
// then stop loss, then take profit; at most one fires. Closing is
// idempotent, so a concurrent evaluation of the same order is harmless.
func (m *Monitor) evaluate(ctx context.Context, orderId string, price decimal.Decimal, now time.Time) error {
	order, err := m.refreshPeak(ctx, orderId, price)
	if err != nil {
		return err
	}
	if order == nil || !order.OpenPosition() {
		return nil
	}

	if order.TrailingStopPercent.IsPositive() && order.HighestPrice.IsPositive() {
		threshold := order.HighestPrice.Sub(decimalx.Pct(order.HighestPrice, order.TrailingStopPercent))
		if price.LessThanOrEqual(threshold) {
			return m.svc.ClosePosition(ctx, orderId, entity.CloseReasonTrailingStop, price)
		}
	}
	if !order.StopLoss.IsZero() && price.LessThanOrEqual(order.StopLoss) {
		return m.svc.ClosePosition(ctx, orderId, entity.CloseReasonStopLoss, price)
	}
	if !order.TakeProfit.IsZero() && price.GreaterThanOrEqual(order.TakeProfit) {
		return m.svc.ClosePosition(ctx, orderId, entity.CloseReasonTakeProfit, price)
	}
	return nil
}

// refreshPeak ratchets the trailing peak up before any trigger check,
// so a candle that makes a new high and then falls back is measured
// against the new high. The peak never moves down.
func (m *Monitor) refreshPeak(ctx context.Context, orderId string, price decimal.Decimal) (*entity.Order, error) {
	defer m.svc.lockOrder(orderId)()

	order, err := m.svc.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order == nil || !order.OpenPosition() {
		return order, nil
	}
	if order.TrailingStopPercent.IsPositive() && price.GreaterThan(order.HighestPrice) {
		order.HighestPrice = price
		order.UpdatedAt = time.Now()
		if err = m.svc.orderRepo.Save(ctx, order); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (m *Monitor) checkLimitOrders(ctx context.Context) {
	orders, err := m.svc.orderRepo.FindOpenLimit(ctx, "")
	if err != nil {
		m.logger.Error("load open limit orders", slog.Any("err", err))
		return
	}
	for symbol := range lo.GroupBy(orders, func(o entity.Order) string { return o.Symbol }) {
		quote, err := m.svc.prices.GetPrice(ctx, symbol)
		if err != nil {
			m.logger.Error("quote symbol", slog.String("symbol", symbol), slog.Any("err", err))
			continue
		}
		m.svc.HandlePriceUpdate(ctx, symbol, quote.Price)
	}
}

func (m *Monitor) expireOrders(ctx context.Context, now time.Time) {
	orders, err := m.svc.orderRepo.FindOpenGTD(ctx)
	if err != nil {
		m.logger.Error("load gtd orders", slog.Any("err", err))
		return
	}
	for i := range orders {
		order := orders[i]
		if !order.Expired(now) {
			continue
		}
		if err = m.expireOrder(ctx, order.Id); err != nil {
			m.logger.Error("expire order", slog.String("orderId", order.Id), slog.Any("err", err))
		}
	}
}

func (m *Monitor) expireOrder(ctx context.Context, orderId string) error {
	order, err := m.svc.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	unlock := m.svc.lockPair(order.Id, order.LinkedOrderId)
	defer unlock()

	order, err = m.svc.orderRepo.FindById(ctx, orderId)
	if err != nil {
		return err
	}
	if order == nil || order.Status != entity.OrderStatusOpen {
		return nil
	}
	m.svc.cancelLocked(ctx, order, entity.OrderStatusExpired, entity.CloseReasonExpired)
	if order.LinkedOrderId != "" {
		return m.svc.cancelSiblingLocked(ctx, order.LinkedOrderId)
	}
	return nil
}
