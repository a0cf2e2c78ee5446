package ta

// MACDPoint is one point of the MACD oscillator.
type MACDPoint struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD returns the MACD series. The MACD line is EMA(fast)-EMA(slow),
// the signal line is an EMA of the MACD line. Only points where the
// signal line is defined are returned, so
// len(out) == len(values) - slow - signal + 2.
func MACD(values []float64, fast, slow, signal int) []MACDPoint {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return nil
	}
	if len(values) < slow+signal-1 {
		return nil
	}

	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	// Align tails: slowEMA is the shorter series.
	macdLine := make([]float64, len(slowEMA))
	offset := len(fastEMA) - len(slowEMA)
	for i := range slowEMA {
		macdLine[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine := EMA(macdLine, signal)

	out := make([]MACDPoint, len(signalLine))
	tail := macdLine[len(macdLine)-len(signalLine):]
	for i := range signalLine {
		out[i] = MACDPoint{
			MACD:      tail[i],
			Signal:    signalLine[i],
			Histogram: tail[i] - signalLine[i],
		}
	}
	return out
}
