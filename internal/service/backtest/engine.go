package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/KNICEX/trading-sim/internal/entity"
	"github.com/KNICEX/trading-sim/internal/service/analytics"
	"github.com/KNICEX/trading-sim/internal/service/broker"
	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/internal/service/strategy"
	"github.com/KNICEX/trading-sim/pkg/errs"
	"github.com/shopspring/decimal"
)

var ErrInsufficientHistory = errs.New("INSUFFICIENT_HISTORY", "not enough candles to backtest")

// minCandles is the smallest series worth simulating.
const minCandles = 10

const defaultRiskFreeRate = 0.02

type Request struct {
	Symbol   string
	Interval market.Interval
	// Limit caps the number of candles fetched; zero lets the source
	// decide.
	Limit          int
	Strategy       string
	Params         strategy.Params
	InitialCapital decimal.Decimal
	BrokerId       string
	// RiskFreeRate is annual; zero means 2%.
	RiskFreeRate float64
}

type Result struct {
	Symbol         string
	Strategy       string
	BrokerId       string
	CandleCount    int
	InitialCapital decimal.Decimal
	FinalEquity    decimal.Decimal
	TotalFees      decimal.Decimal
	Metrics        analytics.Metrics
	Trades         []analytics.Trade
	EquityCurve    []analytics.EquityPoint
}

// Engine replays historical candles through a strategy with an all-in,
// all-out position model: a buy signal commits the whole balance, a
// sell signal flattens the position.
type Engine struct {
	prices  market.PriceSource
	brokers *broker.Catalog
	logger  *slog.Logger
}

func NewEngine(prices market.PriceSource, brokers *broker.Catalog, logger *slog.Logger) *Engine {
	return &Engine{
		prices:  prices,
		brokers: brokers,
		logger:  logger,
	}
}

func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if !req.InitialCapital.IsPositive() {
		return nil, fmt.Errorf("%w: initial capital must be positive", ErrInsufficientHistory)
	}
	candles, err := e.prices.GetCandles(ctx, req.Symbol, req.Interval, req.Limit)
	if err != nil {
		return nil, err
	}
	if len(candles) < minCandles {
		return nil, fmt.Errorf("%w: got %d candles, need %d", ErrInsufficientHistory, len(candles), minCandles)
	}

	strat, err := strategy.New(req.Strategy)
	if err != nil {
		return nil, err
	}
	if err = strat.Prepare(req.Params); err != nil {
		return nil, err
	}

	result := e.simulate(req, strat, candles)

	riskFree := req.RiskFreeRate
	if riskFree == 0 {
		riskFree = defaultRiskFreeRate
	}
	result.Metrics = analytics.Calculate(req.InitialCapital, result.FinalEquity, result.Trades, result.EquityCurve, riskFree)

	e.logger.Info("backtest finished",
		slog.String("symbol", req.Symbol),
		slog.String("strategy", req.Strategy),
		slog.Int("candles", result.CandleCount),
		slog.Int("trades", result.Metrics.TotalTrades),
		slog.String("finalEquity", result.FinalEquity.String()))
	return result, nil
}

func (e *Engine) simulate(req Request, strat strategy.Strategy, candles []market.Candle) *Result {
	result := &Result{
		Symbol:         req.Symbol,
		Strategy:       req.Strategy,
		BrokerId:       req.BrokerId,
		CandleCount:    len(candles),
		InitialCapital: req.InitialCapital,
		TotalFees:      decimal.Zero,
		EquityCurve:    make([]analytics.EquityPoint, 0, len(candles)),
	}

	balance := req.InitialCapital
	position := decimal.Zero

	for _, candle := range candles {
		signal := strat.OnCandle(candle)
		price := candle.Close

		switch {
		case signal.Action == strategy.ActionBuy && position.IsZero() && balance.IsPositive():
			fee := e.entryFee(balance, req.BrokerId)
			amount := balance.Sub(fee).Div(price)
			if amount.IsPositive() {
				result.Trades = append(result.Trades, analytics.Trade{
					Side: entity.SideBuy, Symbol: req.Symbol,
					Amount: amount, Price: price, Fee: fee, At: candle.CloseTime,
				})
				result.TotalFees = result.TotalFees.Add(fee)
				position = amount
				balance = decimal.Zero
			}
		case signal.Action == strategy.ActionSell && position.IsPositive():
			fee := e.brokers.CalculateFee(position, price, broker.RoleTaker, req.BrokerId)
			earnings := decimal.Max(decimal.Zero, position.Mul(price).Sub(fee))
			result.Trades = append(result.Trades, analytics.Trade{
				Side: entity.SideSell, Symbol: req.Symbol,
				Amount: position, Price: price, Fee: fee, At: candle.CloseTime,
			})
			result.TotalFees = result.TotalFees.Add(fee)
			balance = earnings
			position = decimal.Zero
		}

		result.EquityCurve = append(result.EquityCurve, analytics.EquityPoint{
			At:     candle.CloseTime,
			Equity: balance.Add(position.Mul(price)),
		})
	}

	last := candles[len(candles)-1].Close
	result.FinalEquity = balance.Add(position.Mul(last))
	return result
}

// entryFee prices the fee of committing the whole balance: percentage
// brokers take their cut of the committed capital, fixed brokers their
// flat amount, unknown brokers nothing.
func (e *Engine) entryFee(balance decimal.Decimal, brokerId string) decimal.Decimal {
	b, ok := e.brokers.Broker(brokerId)
	if !ok {
		return decimal.Zero
	}
	if b.FeeType == broker.FeeTypeFixed {
		return b.TakerFee
	}
	return balance.Mul(b.TakerFee)
}

type BrokerResult struct {
	BrokerId    string
	BrokerName  string
	FinalEquity decimal.Decimal
	TotalFees   decimal.Decimal
	TotalTrades int
}

// CompareBrokers reruns the same backtest once per catalog broker and
// ranks the outcomes by final equity.
func (e *Engine) CompareBrokers(ctx context.Context, req Request) ([]BrokerResult, error) {
	brokers := e.brokers.Brokers()
	out := make([]BrokerResult, 0, len(brokers))
	for _, b := range brokers {
		brokerReq := req
		brokerReq.BrokerId = b.Id
		result, err := e.Run(ctx, brokerReq)
		if err != nil {
			return nil, fmt.Errorf("broker %s: %w", b.Id, err)
		}
		out = append(out, BrokerResult{
			BrokerId:    b.Id,
			BrokerName:  b.Name,
			FinalEquity: result.FinalEquity,
			TotalFees:   result.TotalFees,
			TotalTrades: result.Metrics.TotalTrades,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FinalEquity.GreaterThan(out[j].FinalEquity)
	})
	return out, nil
}
