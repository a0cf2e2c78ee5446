package ta

// RSI returns the relative strength index series using Wilder
// smoothing. out[0] corresponds to values[period]: the first period
// deltas are averaged to seed the gain/loss means.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return nil
	}

	sumGain, sumLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			sumGain += delta
		} else {
			sumLoss -= delta
		}
	}
	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)

	out := make([]float64, 0, len(values)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50
	case avgLoss == 0:
		return 100
	default:
		rs := avgGain / avgLoss
		return 100 - 100/(1+rs)
	}
}
