package calculate

// midpoint returns (highest high + lowest low) / 2 over the last period
// bars, the construction of the Ichimoku Tenkan-sen and Kijun-sen lines.
// ta-lib has no Ichimoku, so these two lines are computed directly.
func midpoint(highs, lows []float64, period int) *float64 {
	if period <= 0 || len(highs) < period || len(lows) < period {
		return nil
	}

	highest := highs[len(highs)-period]
	lowest := lows[len(lows)-period]
	for i := len(highs) - period; i < len(highs); i++ {
		if highs[i] > highest {
			highest = highs[i]
		}
		if lows[i] < lowest {
			lowest = lows[i]
		}
	}

	v := (highest + lowest) / 2
	return &v
}
