package calculate

import (
	"github.com/markcheno/go-talib"

	"github.com/quantglass/analyst/models"
)

// seriesData holds OHLC data split into the parallel slices ta-lib expects.
type seriesData struct {
	High  []float64
	Low   []float64
	Close []float64
}

func prepareSeries(candles []models.Candle) seriesData {
	data := seriesData{
		High:  make([]float64, len(candles)),
		Low:   make([]float64, len(candles)),
		Close: make([]float64, len(candles)),
	}
	for i, c := range candles {
		data.High[i] = c.High
		data.Low[i] = c.Low
		data.Close[i] = c.Close
	}
	return data
}

// BuildSnapshot computes an indicator snapshot from candle history using
// ta-lib. Candles must be in ascending chronological order. Every field
// for which the history is too short is left nil rather than zeroed, so
// downstream signal synthesis skips it.
func BuildSnapshot(candles []models.Candle, cfg *models.Config) *models.IndicatorSnapshot {
	if len(candles) == 0 {
		return nil
	}

	data := prepareSeries(candles)
	snap := &models.IndicatorSnapshot{
		CurrentPrice: data.Close[len(data.Close)-1],
	}

	if len(candles) > cfg.RSIPeriod {
		rsi := talib.Rsi(data.Close, cfg.RSIPeriod)
		snap.RSI = lastValue(rsi)
	}

	if len(candles) >= cfg.MACDSlowPeriod+cfg.MACDSignalPeriod {
		_, _, hist := talib.Macd(data.Close, cfg.MACDFastPeriod, cfg.MACDSlowPeriod, cfg.MACDSignalPeriod)
		snap.MACDHistogram = lastValue(hist)
	}

	if len(candles) >= cfg.WilliamsRPeriod {
		willr := talib.WillR(data.High, data.Low, data.Close, cfg.WilliamsRPeriod)
		snap.WilliamsR = lastValue(willr)
	}

	if len(candles) >= cfg.CCIPeriod {
		cci := talib.Cci(data.High, data.Low, data.Close, cfg.CCIPeriod)
		snap.CCI = lastValue(cci)
	}

	// ADX needs roughly twice its period to produce a smoothed value.
	if len(candles) > 2*cfg.ADXPeriod {
		adx := talib.Adx(data.High, data.Low, data.Close, cfg.ADXPeriod)
		plusDI := talib.PlusDI(data.High, data.Low, data.Close, cfg.ADXPeriod)
		minusDI := talib.MinusDI(data.High, data.Low, data.Close, cfg.ADXPeriod)
		snap.ADX = lastValue(adx)
		snap.PlusDI = lastValue(plusDI)
		snap.MinusDI = lastValue(minusDI)
	}

	if len(candles) >= 2 {
		sar := talib.Sar(data.High, data.Low, cfg.SARAcceleration, cfg.SARMaximum)
		snap.ParabolicSAR = lastValue(sar)
	}

	if len(candles) >= cfg.TenkanPeriod {
		snap.IchimokuTenkan = midpoint(data.High, data.Low, cfg.TenkanPeriod)
	}
	if len(candles) >= cfg.KijunPeriod {
		snap.IchimokuKijun = midpoint(data.High, data.Low, cfg.KijunPeriod)
	}

	return snap
}

// lastValue copies the most recent value out of a ta-lib output series.
func lastValue(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	return &v
}
