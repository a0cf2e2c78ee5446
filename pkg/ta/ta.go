package ta

// Package ta implements the technical indicator series consumed by the
// trading strategies. All series are computed over float64 closes and
// are shorter than the input: the caller is responsible for tracking
// the warm-up offset (len(input) - len(output)).

// SMA returns the simple moving average series.
// out[0] corresponds to values[period-1].
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	out := make([]float64, 0, len(values)-period+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA returns the exponential moving average series, seeded with the
// SMA of the first period values. out[0] corresponds to values[period-1].
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	k := 2.0 / float64(period+1)

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)

	prev := seed
	for _, v := range values[period:] {
		prev = (v-prev)*k + prev
		out = append(out, prev)
	}
	return out
}
