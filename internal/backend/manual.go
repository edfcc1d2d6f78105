package backend

import (
	"fmt"
	"math"

	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/frame"
)

// manualFn computes one indicator's output columns from a frame.
type manualFn func(f *frame.Frame, d catalog.Descriptor) []column

// Manual is the closed-form backend. It owns the core set that must always
// be computable regardless of which libraries are usable, with column names
// stable across releases (SMA_20, MACD_12_26_9, ICH_TENKAN, ...).
type Manual struct {
	fns map[string]manualFn
}

func NewManual() *Manual {
	m := &Manual{}
	m.fns = map[string]manualFn{
		"sma":      m.sma,
		"ema":      m.ema,
		"rsi":      m.rsi,
		"bbands":   m.bbands,
		"macd":     m.macd,
		"atr":      m.atr,
		"vwap":     m.vwap,
		"ichimoku": m.ichimoku,
	}
	return m
}

func (m *Manual) Kind() catalog.Kind { return catalog.KindManual }

func (m *Manual) Has(fnID string) bool {
	_, ok := m.fns[lowerID(fnID)]
	return ok
}

func (m *Manual) Apply(f *frame.Frame, name string, d catalog.Descriptor) (ok bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			ok, reason = false, panicReason(r)
		}
	}()
	fn, found := m.fns[lowerID(d.Fn)]
	if !found {
		return false, fmt.Sprintf("manual function %s not found", d.Fn)
	}
	if ok, reason := gate(f, d, nil); !ok {
		return false, reason
	}
	return mergeColumns(f, fn(f, d))
}

func (m *Manual) sma(f *frame.Frame, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	n := d.IntParam("length", 20)
	return []column{{fmt.Sprintf("SMA_%d", n), rollingMean(closes, n)}}
}

func (m *Manual) ema(f *frame.Frame, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	n := d.IntParam("length", 20)
	return []column{{fmt.Sprintf("EMA_%d", n), ewmSpan(closes, n, n)}}
}

// rsi uses Wilder smoothing: the recursive mean with alpha = 1/length over
// up and down moves, then RSI = 100 - 100/(1+RS). A zero average loss
// leaves RS undefined, so those rows stay NaN and sanitize to null.
func (m *Manual) rsi(f *frame.Frame, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	n := d.IntParam("length", 14)
	delta := diff(closes)
	gains := make([]float64, len(delta))
	losses := make([]float64, len(delta))
	for i, v := range delta {
		switch {
		case math.IsNaN(v):
			gains[i], losses[i] = math.NaN(), math.NaN()
		case v > 0:
			gains[i] = v
		case v < 0:
			losses[i] = -v
		}
	}
	avgGain := ewmAlpha(gains, 1/float64(n), n)
	avgLoss := ewmAlpha(losses, 1/float64(n), n)
	out := nanSlice(len(closes))
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) || l == 0 {
			continue
		}
		out[i] = 100 - 100/(1+g/l)
	}
	return []column{{fmt.Sprintf("RSI_%d", n), out}}
}

func (m *Manual) bbands(f *frame.Frame, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	n := d.IntParam("length", 20)
	k := d.Param("std", 2.0)
	mid := rollingMean(closes, n)
	dev := rollingStd(closes, n)
	upper := nanSlice(len(closes))
	lower := nanSlice(len(closes))
	for i := range closes {
		upper[i] = mid[i] + k*dev[i]
		lower[i] = mid[i] - k*dev[i]
	}
	return []column{
		{fmt.Sprintf("BBM_%d", n), mid},
		{fmt.Sprintf("BBU_%d", n), upper},
		{fmt.Sprintf("BBL_%d", n), lower},
	}
}

func (m *Manual) macd(f *frame.Frame, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	fast := d.IntParam("fast", 12)
	slow := d.IntParam("slow", 26)
	sig := d.IntParam("signal", 9)
	emaFast := ewmSpan(closes, fast, fast)
	emaSlow := ewmSpan(closes, slow, slow)
	line := nanSlice(len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signal := ewmSpan(line, sig, sig)
	hist := nanSlice(len(closes))
	for i := range closes {
		hist[i] = line[i] - signal[i]
	}
	suffix := fmt.Sprintf("%d_%d_%d", fast, slow, sig)
	return []column{
		{"MACD_" + suffix, line},
		{"MACDs_" + suffix, signal},
		{"MACDh_" + suffix, hist},
	}
}

// atr smooths true range with the Wilder recursion. The first bar has no
// previous close, so its true range is just high minus low.
func (m *Manual) atr(f *frame.Frame, d catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	n := d.IntParam("length", 14)
	tr := make([]float64, len(closes))
	for i := range closes {
		hl := high[i] - low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(high[i] - closes[i-1])
		lc := math.Abs(low[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return []column{{fmt.Sprintf("ATR_%d", n), ewmAlpha(tr, 1/float64(n), n)}}
}

// vwap is the session-cumulative form: running sum of typical price times
// volume over running sum of volume. Zero cumulative volume yields NaN.
func (m *Manual) vwap(f *frame.Frame, _ catalog.Descriptor) []column {
	_, high, low, closes, volume := ohlcv(f)
	out := nanSlice(len(closes))
	var pvSum, vSum float64
	for i := range closes {
		tp := (high[i] + low[i] + closes[i]) / 3
		pvSum += tp * volume[i]
		vSum += volume[i]
		if vSum > 0 {
			out[i] = pvSum / vSum
		}
	}
	return []column{{"VWAP", out}}
}

// ichimoku emits the five lines. The senkou spans are projected forward by
// the shift parameter and the chikou span is the close shifted backward,
// so both ends of the series carry NaN padding.
func (m *Manual) ichimoku(f *frame.Frame, d catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	tenkanN := d.IntParam("tenkan", 9)
	kijunN := d.IntParam("kijun", 26)
	senkouN := d.IntParam("senkou_b", 52)
	shiftN := d.IntParam("shift", 26)

	midline := func(n int) []float64 {
		hi := rollingMax(high, n)
		lo := rollingMin(low, n)
		out := nanSlice(len(high))
		for i := range out {
			out[i] = (hi[i] + lo[i]) / 2
		}
		return out
	}
	tenkan := midline(tenkanN)
	kijun := midline(kijunN)
	spanA := nanSlice(len(closes))
	for i := range spanA {
		spanA[i] = (tenkan[i] + kijun[i]) / 2
	}
	return []column{
		{"ICH_TENKAN", tenkan},
		{"ICH_KIJUN", kijun},
		{"ICH_SA", shift(spanA, shiftN)},
		{"ICH_SB", shift(midline(senkouN), shiftN)},
		{"ICH_CHIKOU", shift(closes, -shiftN)},
	}
}
