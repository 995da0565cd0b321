package technical

import (
	"math"
	"sort"

	"github.com/quantglass/analyst/models"
)

const (
	// srWindow is the number of most recent candles examined for pivots.
	srWindow = 20
	// maxLevels caps how many levels are reported per side.
	maxLevels = 3
)

// IdentifySupportResistance derives support and resistance price levels
// from recent candle history. Candles must be in ascending chronological
// order. Pivot highs and lows inside the 20-candle analysis window are
// merged with psychological round-number levels at roughly +/-5% and
// +/-10% of the latest close; each side is capped at three levels,
// nearest to the current price first. With fewer than 20 candles both
// results are empty. The input slice is never modified.
func IdentifySupportResistance(candles []models.Candle) (support, resistance []float64) {
	if len(candles) < srWindow {
		return nil, nil
	}

	window := candles[len(candles)-srWindow:]
	currentPrice := window[len(window)-1].Close

	// Pivot scan: window endpoints are never pivots.
	var pivotHighs, pivotLows []float64
	for i := 1; i < len(window)-1; i++ {
		if window[i].High > window[i-1].High && window[i].High > window[i+1].High {
			pivotHighs = append(pivotHighs, window[i].High)
		}
		if window[i].Low < window[i-1].Low && window[i].Low < window[i+1].Low {
			pivotLows = append(pivotLows, window[i].Low)
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(pivotHighs)))
	sort.Float64s(pivotLows)

	var resistanceCandidates []float64
	for _, level := range pivotHighs {
		if level > currentPrice && len(resistanceCandidates) < maxLevels {
			resistanceCandidates = append(resistanceCandidates, level)
		}
	}

	var supportCandidates []float64
	for _, level := range pivotLows {
		if level < currentPrice && len(supportCandidates) < maxLevels {
			supportCandidates = append(supportCandidates, level)
		}
	}

	// Round-number levels traders are assumed to react to.
	resistanceCandidates = append(resistanceCandidates,
		roundToNearest(currentPrice*1.05, 5),
		roundToNearest(currentPrice*1.10, 10),
	)
	supportCandidates = append(supportCandidates,
		roundToNearest(currentPrice*0.95, 5),
		roundToNearest(currentPrice*0.90, 10),
	)

	// A rounded level can land on the wrong side of the price, so both
	// sides re-filter strictly before the final sort.
	resistance = finalizeLevels(resistanceCandidates, func(level float64) bool {
		return level > currentPrice
	}, func(a, b float64) bool { return a < b })

	support = finalizeLevels(supportCandidates, func(level float64) bool {
		return level < currentPrice
	}, func(a, b float64) bool { return a > b })

	return support, resistance
}

// roundToNearest rounds x to the nearest multiple of granularity.
func roundToNearest(x, granularity float64) float64 {
	return math.Round(x/granularity) * granularity
}

// finalizeLevels filters candidates to one side of the current price,
// removes exact duplicates, sorts nearest-first and caps the result.
func finalizeLevels(candidates []float64, keep func(float64) bool, less func(a, b float64) bool) []float64 {
	seen := make(map[float64]bool, len(candidates))
	var levels []float64
	for _, level := range candidates {
		if !keep(level) || seen[level] {
			continue
		}
		seen[level] = true
		levels = append(levels, level)
	}

	sort.Slice(levels, func(i, j int) bool {
		return less(levels[i], levels[j])
	})

	if len(levels) > maxLevels {
		levels = levels[:maxLevels]
	}
	return levels
}
