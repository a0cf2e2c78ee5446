package trade

import "github.com/KNICEX/trading-sim/pkg/errs"

var (
	ErrInvalidOrder         = errs.New("INVALID_ORDER", "invalid order")
	ErrOrderNotFound        = errs.New("ORDER_NOT_FOUND", "order not found")
	ErrOrderNotCancellable  = errs.New("ORDER_NOT_CANCELLABLE", "order can no longer be cancelled")
	ErrTradeExecutionFailed = errs.New("TRADE_EXECUTION_FAILED", "trade execution failed")
)
