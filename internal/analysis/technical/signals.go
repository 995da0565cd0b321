package technical

import (
	"math"
	"time"

	"github.com/quantglass/analyst/models"
)

// Signal type labels. Synthesized signals always appear in this order.
const (
	SignalRSI       = "RSI"
	SignalMACD      = "MACD"
	SignalWilliamsR = "Williams %R"
	SignalCCI       = "CCI"
	SignalADX       = "ADX"
	SignalSAR       = "Parabolic SAR"
	SignalIchimoku  = "Ichimoku"
)

// Fixed decision thresholds. These are design constants of the engine,
// not tunables.
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
	williamsLower = -80.0
	williamsUpper = -20.0
	cciUpper      = 100.0
	cciLower      = -100.0
	adxTrendFloor = 25.0
)

// SynthesizeSignals converts one indicator snapshot into directional,
// strength-scored signals, one per indicator family present in the
// snapshot. Absent indicators (nil fields) produce no signal at all;
// paired indicators require every member of the pair. The function is
// pure: identical inputs always yield identical output, and the given
// asOf timestamp is stamped on every signal.
func SynthesizeSignals(snap *models.IndicatorSnapshot, asOf time.Time) []models.Signal {
	if snap == nil {
		return nil
	}

	var signals []models.Signal
	price := snap.CurrentPrice

	if snap.RSI != nil {
		v := *snap.RSI
		direction := models.DirectionNeutral
		if v < rsiOversold {
			direction = models.DirectionBullish
		} else if v > rsiOverbought {
			direction = models.DirectionBearish
		}
		signals = append(signals, models.Signal{
			Type:      SignalRSI,
			Direction: direction,
			Strength:  math.Abs(v-50) * 2,
			Timestamp: asOf,
		})
	}

	if snap.MACDHistogram != nil {
		hist := *snap.MACDHistogram
		direction := models.DirectionNeutral
		if hist > 0 {
			direction = models.DirectionBullish
		} else if hist < 0 {
			direction = models.DirectionBearish
		}
		signals = append(signals, models.Signal{
			Type:      SignalMACD,
			Direction: direction,
			Strength:  math.Abs(hist) * 50,
			Timestamp: asOf,
		})
	}

	if snap.WilliamsR != nil {
		v := *snap.WilliamsR
		direction := models.DirectionNeutral
		if v < williamsLower {
			direction = models.DirectionBullish
		} else if v > williamsUpper {
			direction = models.DirectionBearish
		}
		signals = append(signals, models.Signal{
			Type:      SignalWilliamsR,
			Direction: direction,
			Strength:  math.Abs(v+50) * 2,
			Timestamp: asOf,
		})
	}

	if snap.CCI != nil {
		v := *snap.CCI
		direction := models.DirectionNeutral
		if v > cciUpper {
			direction = models.DirectionBullish
		} else if v < cciLower {
			direction = models.DirectionBearish
		}
		signals = append(signals, models.Signal{
			Type:      SignalCCI,
			Direction: direction,
			Strength:  math.Abs(v) / 2,
			Timestamp: asOf,
		})
	}

	if snap.ADX != nil && snap.PlusDI != nil && snap.MinusDI != nil {
		adx := *snap.ADX
		direction := models.DirectionNeutral
		if adx > adxTrendFloor {
			if *snap.PlusDI > *snap.MinusDI {
				direction = models.DirectionBullish
			} else if *snap.MinusDI > *snap.PlusDI {
				direction = models.DirectionBearish
			}
		}
		signals = append(signals, models.Signal{
			Type:      SignalADX,
			Direction: direction,
			Strength:  adx,
			Timestamp: asOf,
		})
	}

	if snap.ParabolicSAR != nil {
		sar := *snap.ParabolicSAR
		direction := models.DirectionNeutral
		if price > sar {
			direction = models.DirectionBullish
		} else if price < sar {
			direction = models.DirectionBearish
		}
		signals = append(signals, models.Signal{
			Type:      SignalSAR,
			Direction: direction,
			Strength:  math.Abs(price-sar) / sar * 100,
			Timestamp: asOf,
		})
	}

	if snap.IchimokuTenkan != nil && snap.IchimokuKijun != nil {
		tenkan := *snap.IchimokuTenkan
		kijun := *snap.IchimokuKijun
		direction := models.DirectionNeutral
		if price > tenkan && price > kijun {
			direction = models.DirectionBullish
		} else if price < tenkan && price < kijun {
			direction = models.DirectionBearish
		}
		midpoint := (tenkan + kijun) / 2
		signals = append(signals, models.Signal{
			Type:      SignalIchimoku,
			Direction: direction,
			Strength:  math.Abs(price-midpoint) / price * 100,
			Timestamp: asOf,
		})
	}

	return signals
}

// CountDirections tallies how many signals point each way.
func CountDirections(signals []models.Signal) (bullish, bearish, neutral int) {
	for _, s := range signals {
		switch s.Direction {
		case models.DirectionBullish:
			bullish++
		case models.DirectionBearish:
			bearish++
		default:
			neutral++
		}
	}
	return bullish, bearish, neutral
}
