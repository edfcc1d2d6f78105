package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/frame"
)

type techanFn func(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column

// Techan wraps github.com/sdcoffey/techan. The library works on candle
// time series and decimal indicators, so each Apply rebuilds a TimeSeries
// from the frame and evaluates the bound indicator at every index.
type Techan struct {
	fns map[string]techanFn
}

func NewTechan() *Techan {
	t := &Techan{}
	t.fns = map[string]techanFn{
		"stddev":    t.stddev,
		"trendline": t.trendline,
		"sma":       t.sma,
		"ema":       t.ema,
		"rsi":       t.rsi,
		"macd":      t.macd,
		"atr":       t.atr,
		"bbands":    t.bbands,
	}
	return t
}

func (t *Techan) Kind() catalog.Kind { return catalog.KindTechan }

func (t *Techan) Has(fnID string) bool {
	_, ok := t.fns[lowerID(fnID)]
	return ok
}

func (t *Techan) Apply(f *frame.Frame, name string, d catalog.Descriptor) (ok bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			ok, reason = false, panicReason(r)
		}
	}()
	fn, found := t.fns[lowerID(d.Fn)]
	if !found {
		return false, fmt.Sprintf("techan function %s not found", d.Fn)
	}
	if ok, reason := gate(f, d, nil); !ok {
		return false, reason
	}
	return mergeColumns(f, fn(buildSeries(f), f.Len(), strings.ToUpper(name), d))
}

// buildSeries converts a frame into a techan TimeSeries. Candle periods
// reuse the frame's own timestamps; the nominal one-minute duration only
// orders candles and never feeds a calculation.
func buildSeries(f *frame.Frame) *techan.TimeSeries {
	open, high, low, closes, volume := ohlcv(f)
	series := techan.NewTimeSeries()
	for i, ts := range f.Index() {
		candle := techan.NewCandle(techan.NewTimePeriod(ts, time.Minute))
		candle.OpenPrice = big.NewDecimal(open[i])
		candle.MaxPrice = big.NewDecimal(high[i])
		candle.MinPrice = big.NewDecimal(low[i])
		candle.ClosePrice = big.NewDecimal(closes[i])
		candle.Volume = big.NewDecimal(volume[i])
		series.AddCandle(candle)
	}
	return series
}

// evaluate runs an indicator over every series index.
func evaluate(ind techan.Indicator, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = ind.Calculate(i).Float()
	}
	return out
}

func (t *Techan) stddev(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column {
	ind := techan.NewWindowedStandardDeviationIndicator(techan.NewClosePriceIndicator(s), d.IntParam("length", 20))
	return []column{{name, evaluate(ind, n)}}
}

func (t *Techan) trendline(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column {
	ind := techan.NewTrendlineIndicator(techan.NewClosePriceIndicator(s), d.IntParam("length", 14))
	return []column{{name, evaluate(ind, n)}}
}

func (t *Techan) sma(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column {
	ind := techan.NewSimpleMovingAverage(techan.NewClosePriceIndicator(s), d.IntParam("length", 20))
	return []column{{name, evaluate(ind, n)}}
}

func (t *Techan) ema(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column {
	ind := techan.NewEMAIndicator(techan.NewClosePriceIndicator(s), d.IntParam("length", 20))
	return []column{{name, evaluate(ind, n)}}
}

func (t *Techan) rsi(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column {
	ind := techan.NewRelativeStrengthIndexIndicator(techan.NewClosePriceIndicator(s), d.IntParam("length", 14))
	return []column{{name, evaluate(ind, n)}}
}

// macd derives the signal line from the histogram identity
// signal = macd - histogram, which is what the library exposes.
func (t *Techan) macd(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column {
	closeInd := techan.NewClosePriceIndicator(s)
	macdInd := techan.NewMACDIndicator(closeInd, d.IntParam("fast", 12), d.IntParam("slow", 26))
	histInd := techan.NewMACDHistogramIndicator(macdInd, d.IntParam("signal", 9))
	line := evaluate(macdInd, n)
	hist := evaluate(histInd, n)
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = line[i] - hist[i]
	}
	return []column{{name + "_MACD", line}, {name + "_SIGNAL", signal}, {name + "_HIST", hist}}
}

func (t *Techan) atr(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column {
	ind := techan.NewAverageTrueRangeIndicator(s, d.IntParam("length", 14))
	return []column{{name, evaluate(ind, n)}}
}

func (t *Techan) bbands(s *techan.TimeSeries, n int, name string, d catalog.Descriptor) []column {
	closeInd := techan.NewClosePriceIndicator(s)
	window := d.IntParam("length", 20)
	sigma := d.Param("std", 2.0)
	middle := techan.NewSimpleMovingAverage(closeInd, window)
	upper := techan.NewBollingerUpperBandIndicator(closeInd, window, sigma)
	lower := techan.NewBollingerLowerBandIndicator(closeInd, window, sigma)
	return []column{
		{name + "_UPPER", evaluate(upper, n)},
		{name + "_MIDDLE", evaluate(middle, n)},
		{name + "_LOWER", evaluate(lower, n)},
	}
}
