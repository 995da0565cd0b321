package technical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantglass/analyst/models"
)

func fptr(v float64) *float64 { return &v }

func fullSnapshot() *models.IndicatorSnapshot {
	return &models.IndicatorSnapshot{
		CurrentPrice:   100,
		RSI:            fptr(75),
		MACDHistogram:  fptr(0.5),
		WilliamsR:      fptr(-90),
		CCI:            fptr(150),
		ADX:            fptr(30),
		PlusDI:         fptr(28),
		MinusDI:        fptr(12),
		ParabolicSAR:   fptr(98),
		IchimokuTenkan: fptr(95),
		IchimokuKijun:  fptr(97),
	}
}

func TestSynthesizeSignals_RSI(t *testing.T) {
	tests := []struct {
		name          string
		rsi           float64
		wantDirection models.SignalDirection
		wantStrength  float64
	}{
		{"oversold", 25, models.DirectionBullish, 50},
		{"deep oversold", 10, models.DirectionBullish, 80},
		{"overbought", 75, models.DirectionBearish, 50},
		{"midrange", 50, models.DirectionNeutral, 0},
		{"lower boundary stays neutral", 30, models.DirectionNeutral, 40},
		{"upper boundary stays neutral", 70, models.DirectionNeutral, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.IndicatorSnapshot{CurrentPrice: 100, RSI: fptr(tt.rsi)}
			signals := SynthesizeSignals(snap, time.Now())

			require.Len(t, signals, 1)
			assert.Equal(t, SignalRSI, signals[0].Type)
			assert.Equal(t, tt.wantDirection, signals[0].Direction)
			assert.InDelta(t, tt.wantStrength, signals[0].Strength, 1e-9)
		})
	}
}

func TestSynthesizeSignals_MACD(t *testing.T) {
	tests := []struct {
		name          string
		histogram     float64
		wantDirection models.SignalDirection
		wantStrength  float64
	}{
		{"positive histogram", 0.5, models.DirectionBullish, 25},
		{"negative histogram", -0.2, models.DirectionBearish, 10},
		{"flat histogram", 0, models.DirectionNeutral, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.IndicatorSnapshot{CurrentPrice: 100, MACDHistogram: fptr(tt.histogram)}
			signals := SynthesizeSignals(snap, time.Now())

			require.Len(t, signals, 1)
			assert.Equal(t, SignalMACD, signals[0].Type)
			assert.Equal(t, tt.wantDirection, signals[0].Direction)
			assert.InDelta(t, tt.wantStrength, signals[0].Strength, 1e-9)
		})
	}
}

func TestSynthesizeSignals_WilliamsR(t *testing.T) {
	tests := []struct {
		name          string
		value         float64
		wantDirection models.SignalDirection
		wantStrength  float64
	}{
		{"oversold", -90, models.DirectionBullish, 80},
		{"overbought", -10, models.DirectionBearish, 80},
		{"midrange", -50, models.DirectionNeutral, 0},
		{"lower boundary stays neutral", -80, models.DirectionNeutral, 60},
		{"upper boundary stays neutral", -20, models.DirectionNeutral, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.IndicatorSnapshot{CurrentPrice: 100, WilliamsR: fptr(tt.value)}
			signals := SynthesizeSignals(snap, time.Now())

			require.Len(t, signals, 1)
			assert.Equal(t, SignalWilliamsR, signals[0].Type)
			assert.Equal(t, tt.wantDirection, signals[0].Direction)
			assert.InDelta(t, tt.wantStrength, signals[0].Strength, 1e-9)
		})
	}
}

func TestSynthesizeSignals_CCI(t *testing.T) {
	tests := []struct {
		name          string
		value         float64
		wantDirection models.SignalDirection
		wantStrength  float64
	}{
		{"strong up", 150, models.DirectionBullish, 75},
		{"strong down", -150, models.DirectionBearish, 75},
		{"midrange", 50, models.DirectionNeutral, 25},
		{"boundary stays neutral", 100, models.DirectionNeutral, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.IndicatorSnapshot{CurrentPrice: 100, CCI: fptr(tt.value)}
			signals := SynthesizeSignals(snap, time.Now())

			require.Len(t, signals, 1)
			assert.Equal(t, SignalCCI, signals[0].Type)
			assert.Equal(t, tt.wantDirection, signals[0].Direction)
			assert.InDelta(t, tt.wantStrength, signals[0].Strength, 1e-9)
		})
	}
}

func TestSynthesizeSignals_ADX(t *testing.T) {
	tests := []struct {
		name          string
		adx           float64
		plusDI        float64
		minusDI       float64
		wantDirection models.SignalDirection
	}{
		{"trending up", 30, 28, 12, models.DirectionBullish},
		{"trending down", 30, 12, 28, models.DirectionBearish},
		{"weak trend ignores DI", 20, 28, 12, models.DirectionNeutral},
		{"boundary stays neutral", 25, 28, 12, models.DirectionNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.IndicatorSnapshot{
				CurrentPrice: 100,
				ADX:          fptr(tt.adx),
				PlusDI:       fptr(tt.plusDI),
				MinusDI:      fptr(tt.minusDI),
			}
			signals := SynthesizeSignals(snap, time.Now())

			require.Len(t, signals, 1)
			assert.Equal(t, SignalADX, signals[0].Type)
			assert.Equal(t, tt.wantDirection, signals[0].Direction)
			// ADX strength is the ADX reading itself.
			assert.InDelta(t, tt.adx, signals[0].Strength, 1e-9)
		})
	}
}

func TestSynthesizeSignals_ADXRequiresBothDILines(t *testing.T) {
	snap := &models.IndicatorSnapshot{
		CurrentPrice: 100,
		ADX:          fptr(30),
		PlusDI:       fptr(28),
		// MinusDI absent: the whole family must be skipped.
	}
	signals := SynthesizeSignals(snap, time.Now())
	assert.Empty(t, signals)
}

func TestSynthesizeSignals_ParabolicSAR(t *testing.T) {
	tests := []struct {
		name          string
		price         float64
		sar           float64
		wantDirection models.SignalDirection
		wantStrength  float64
	}{
		// Distance is measured relative to the SAR level itself.
		{"price above SAR", 100, 98, models.DirectionBullish, 2.0 / 98 * 100},
		{"price below SAR", 100, 102, models.DirectionBearish, 2.0 / 102 * 100},
		{"price on SAR", 100, 100, models.DirectionNeutral, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.IndicatorSnapshot{CurrentPrice: tt.price, ParabolicSAR: fptr(tt.sar)}
			signals := SynthesizeSignals(snap, time.Now())

			require.Len(t, signals, 1)
			assert.Equal(t, SignalSAR, signals[0].Type)
			assert.Equal(t, tt.wantDirection, signals[0].Direction)
			assert.InDelta(t, tt.wantStrength, signals[0].Strength, 1e-9)
		})
	}
}

func TestSynthesizeSignals_Ichimoku(t *testing.T) {
	tests := []struct {
		name          string
		price         float64
		tenkan        float64
		kijun         float64
		wantDirection models.SignalDirection
		wantStrength  float64
	}{
		{"price above both lines", 100, 95, 97, models.DirectionBullish, 4},
		{"price below both lines", 100, 103, 105, models.DirectionBearish, 4},
		{"price between lines", 100, 98, 103, models.DirectionNeutral, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &models.IndicatorSnapshot{
				CurrentPrice:   tt.price,
				IchimokuTenkan: fptr(tt.tenkan),
				IchimokuKijun:  fptr(tt.kijun),
			}
			signals := SynthesizeSignals(snap, time.Now())

			require.Len(t, signals, 1)
			assert.Equal(t, SignalIchimoku, signals[0].Type)
			assert.Equal(t, tt.wantDirection, signals[0].Direction)
			assert.InDelta(t, tt.wantStrength, signals[0].Strength, 1e-9)
		})
	}
}

func TestSynthesizeSignals_IchimokuRequiresBothLines(t *testing.T) {
	snap := &models.IndicatorSnapshot{CurrentPrice: 100, IchimokuTenkan: fptr(95)}
	assert.Empty(t, SynthesizeSignals(snap, time.Now()))
}

func TestSynthesizeSignals_PartialSnapshot(t *testing.T) {
	// Spec of the dashboard summary card: RSI 75, MACD histogram 0.5,
	// SAR 98 under a price of 100, everything else unavailable.
	snap := &models.IndicatorSnapshot{
		CurrentPrice:  100,
		RSI:           fptr(75),
		MACDHistogram: fptr(0.5),
		ParabolicSAR:  fptr(98),
	}
	signals := SynthesizeSignals(snap, time.Now())

	require.Len(t, signals, 3)

	assert.Equal(t, SignalRSI, signals[0].Type)
	assert.Equal(t, models.DirectionBearish, signals[0].Direction)
	assert.InDelta(t, 50, signals[0].Strength, 1e-9)

	assert.Equal(t, SignalMACD, signals[1].Type)
	assert.Equal(t, models.DirectionBullish, signals[1].Direction)
	assert.InDelta(t, 25, signals[1].Strength, 1e-9)

	assert.Equal(t, SignalSAR, signals[2].Type)
	assert.Equal(t, models.DirectionBullish, signals[2].Direction)
	assert.InDelta(t, 2.0408, signals[2].Strength, 1e-4)
}

func TestSynthesizeSignals_AbsenceDoesNotAffectOthers(t *testing.T) {
	withCCI := fullSnapshot()
	withoutCCI := fullSnapshot()
	withoutCCI.CCI = nil

	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := SynthesizeSignals(withoutCCI, asOf)
	want := SynthesizeSignals(withCCI, asOf)

	for _, s := range got {
		assert.NotEqual(t, SignalCCI, s.Type)
	}
	require.Len(t, got, len(want)-1)

	// Remaining signals are identical to the full-snapshot run.
	i := 0
	for _, s := range want {
		if s.Type == SignalCCI {
			continue
		}
		assert.Equal(t, s, got[i])
		i++
	}
}

func TestSynthesizeSignals_EmptySnapshot(t *testing.T) {
	assert.Empty(t, SynthesizeSignals(&models.IndicatorSnapshot{CurrentPrice: 100}, time.Now()))
	assert.Empty(t, SynthesizeSignals(nil, time.Now()))
}

func TestSynthesizeSignals_Deterministic(t *testing.T) {
	snap := fullSnapshot()
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := SynthesizeSignals(snap, asOf)
	second := SynthesizeSignals(snap, asOf)

	require.Equal(t, first, second)
}

func TestSynthesizeSignals_InsertionOrder(t *testing.T) {
	signals := SynthesizeSignals(fullSnapshot(), time.Now())

	wantOrder := []string{
		SignalRSI, SignalMACD, SignalWilliamsR, SignalCCI,
		SignalADX, SignalSAR, SignalIchimoku,
	}
	require.Len(t, signals, len(wantOrder))
	for i, s := range signals {
		assert.Equal(t, wantOrder[i], s.Type)
		assert.GreaterOrEqual(t, s.Strength, 0.0)
	}
}

func TestCountDirections(t *testing.T) {
	signals := SynthesizeSignals(fullSnapshot(), time.Now())
	bullish, bearish, neutral := CountDirections(signals)

	assert.Equal(t, len(signals), bullish+bearish+neutral)
	assert.Equal(t, 6, bullish)
	assert.Equal(t, 1, bearish)
	assert.Equal(t, 0, neutral)
}
