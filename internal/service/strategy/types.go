package strategy

import (
	"fmt"

	"github.com/KNICEX/trading-sim/internal/service/market"
	"github.com/KNICEX/trading-sim/pkg/errs"
)

var ErrUnknownStrategy = errs.New("UNKNOWN_STRATEGY", "unknown strategy")

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

type Signal struct {
	Action Action
	Reason string
}

var hold = Signal{Action: ActionHold}

// Params tunes a strategy. Missing keys fall back to the strategy's
// defaults.
type Params map[string]float64

func (p Params) value(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Strategy consumes candles one at a time and emits trade signals.
// Instances are stateful and not safe for concurrent use; create a
// fresh one per run via New.
type Strategy interface {
	Name() string
	ValidateParams(params Params) error
	// Prepare resets state and applies params for a new run.
	Prepare(params Params) error
	OnCandle(candle market.Candle) Signal
}

func New(name string) (Strategy, error) {
	switch name {
	case "sma_cross":
		return &SMACross{}, nil
	case "rsi":
		return &RSI{}, nil
	case "macd":
		return &MACD{}, nil
	case "multi_confirm":
		return &MultiConfirm{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
}

// Names lists the registered strategies.
func Names() []string {
	return []string{"sma_cross", "rsi", "macd", "multi_confirm"}
}
