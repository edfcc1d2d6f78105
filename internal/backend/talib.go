package backend

import (
	"fmt"
	"strings"

	"github.com/markcheno/go-talib"

	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/frame"
)

type talibFn func(f *frame.Frame, name string, d catalog.Descriptor) []column

// Talib wraps github.com/markcheno/go-talib, the widest of the four
// backends. Bindings are declared in a static table so the supported
// surface is greppable and each function's argument mapping is explicit.
type Talib struct {
	fns map[string]talibFn
}

func NewTalib() *Talib {
	t := &Talib{}
	t.fns = map[string]talibFn{
		// Overlap studies.
		"dema":      closeSeries(talib.Dema, 30),
		"tema":      closeSeries(talib.Tema, 30),
		"trima":     closeSeries(talib.Trima, 30),
		"kama":      closeSeries(talib.Kama, 30),
		"wma":       closeSeries(talib.Wma, 20),
		"midpoint":  closeSeries(talib.MidPoint, 14),
		"linearreg": closeSeries(talib.LinearReg, 14),
		"mama":      t.mama,
		"t3":        t.t3,
		"midprice":  t.midprice,
		// Price transforms.
		"typprice": t.typprice,
		"wclprice": t.wclprice,
		"avgprice": t.avgprice,
		"medprice": t.medprice,
		// Momentum.
		"adx":      hlcSeries(talib.Adx, 14),
		"adxr":     hlcSeries(talib.AdxR, 14),
		"cci":      hlcSeries(talib.Cci, 20),
		"dx":       hlcSeries(talib.Dx, 14),
		"minus_di": hlcSeries(talib.MinusDI, 14),
		"plus_di":  hlcSeries(talib.PlusDI, 14),
		"willr":    hlcSeries(talib.WillR, 14),
		"minus_dm": hlSeries(talib.MinusDM, 14),
		"plus_dm":  hlSeries(talib.PlusDM, 14),
		"cmo":      closeSeries(talib.Cmo, 14),
		"mom":      closeSeries(talib.Mom, 10),
		"roc":      closeSeries(talib.Roc, 10),
		"rocp":     closeSeries(talib.Rocp, 10),
		"rocr":     closeSeries(talib.Rocr, 10),
		"rocr100":  closeSeries(talib.Rocr100, 10),
		"trix":     closeSeries(talib.Trix, 30),
		"rsi":      closeSeries(talib.Rsi, 14),
		"sma":      closeSeries(talib.Sma, 20),
		"ema":      closeSeries(talib.Ema, 20),
		"apo":      t.apo,
		"ppo":      t.ppo,
		"aroonosc": t.aroonosc,
		"aroon":    t.aroon,
		"bop":      t.bop,
		"mfi":      t.mfi,
		"stochf":   t.stochf,
		"stochrsi": t.stochrsi,
		"stoch":    t.stoch,
		"ultosc":   t.ultosc,
		"macd":     t.macd,
		"bbands":   t.bbands,
		// Volume and volatility.
		"ad":     t.ad,
		"adosc":  t.adosc,
		"obv":    t.obv,
		"atr":    hlcSeries(talib.Atr, 14),
		"natr":   hlcSeries(talib.Natr, 14),
		"trange": t.trange,
	}
	return t
}

func (t *Talib) Kind() catalog.Kind { return catalog.KindTalib }

func (t *Talib) Has(fnID string) bool {
	_, ok := t.fns[lowerID(fnID)]
	return ok
}

func (t *Talib) Apply(f *frame.Frame, name string, d catalog.Descriptor) (ok bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			ok, reason = false, panicReason(r)
		}
	}()
	fn, found := t.fns[lowerID(d.Fn)]
	if !found {
		return false, fmt.Sprintf("talib function %s not found", d.Fn)
	}
	if ok, reason := gate(f, d, nil); !ok {
		return false, reason
	}
	return mergeColumns(f, fn(f, strings.ToUpper(name), d))
}

// closeSeries binds a close-and-period talib function as one output column.
func closeSeries(fn func([]float64, int) []float64, defLen int) talibFn {
	return func(f *frame.Frame, name string, d catalog.Descriptor) []column {
		_, _, _, closes, _ := ohlcv(f)
		return []column{{name, fn(closes, d.IntParam("length", defLen))}}
	}
}

func hlcSeries(fn func([]float64, []float64, []float64, int) []float64, defLen int) talibFn {
	return func(f *frame.Frame, name string, d catalog.Descriptor) []column {
		_, high, low, closes, _ := ohlcv(f)
		return []column{{name, fn(high, low, closes, d.IntParam("length", defLen))}}
	}
}

func hlSeries(fn func([]float64, []float64, int) []float64, defLen int) talibFn {
	return func(f *frame.Frame, name string, d catalog.Descriptor) []column {
		_, high, low, _, _ := ohlcv(f)
		return []column{{name, fn(high, low, d.IntParam("length", defLen))}}
	}
}

func (t *Talib) mama(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	mama, fama := talib.Mama(closes, d.Param("fastlimit", 0.5), d.Param("slowlimit", 0.05))
	return []column{{name + "_MAMA", mama}, {name + "_FAMA", fama}}
}

func (t *Talib) t3(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	return []column{{name, talib.T3(closes, d.IntParam("length", 5), d.Param("vfactor", 0.7))}}
}

func (t *Talib) midprice(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, _, _ := ohlcv(f)
	return []column{{name, talib.MidPrice(high, low, d.IntParam("length", 14))}}
}

func (t *Talib) typprice(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	return []column{{name, talib.TypPrice(high, low, closes)}}
}

func (t *Talib) wclprice(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	return []column{{name, talib.WclPrice(high, low, closes)}}
}

func (t *Talib) avgprice(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	open, high, low, closes, _ := ohlcv(f)
	return []column{{name, talib.AvgPrice(open, high, low, closes)}}
}

func (t *Talib) medprice(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, _, _ := ohlcv(f)
	return []column{{name, talib.MedPrice(high, low)}}
}

func (t *Talib) apo(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	return []column{{name, talib.Apo(closes, d.IntParam("fast", 12), d.IntParam("slow", 26), talib.SMA)}}
}

func (t *Talib) ppo(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	return []column{{name, talib.Ppo(closes, d.IntParam("fast", 12), d.IntParam("slow", 26), talib.SMA)}}
}

func (t *Talib) aroonosc(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, _, _ := ohlcv(f)
	return []column{{name, talib.AroonOsc(high, low, d.IntParam("length", 14))}}
}

func (t *Talib) aroon(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, _, _ := ohlcv(f)
	down, up := talib.Aroon(high, low, d.IntParam("length", 25))
	return []column{{name + "_UP", up}, {name + "_DOWN", down}}
}

func (t *Talib) bop(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	open, high, low, closes, _ := ohlcv(f)
	return []column{{name, talib.Bop(open, high, low, closes)}}
}

func (t *Talib) mfi(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, closes, volume := ohlcv(f)
	return []column{{name, talib.Mfi(high, low, closes, volume, d.IntParam("length", 14))}}
}

func (t *Talib) stoch(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	k, dl := talib.Stoch(high, low, closes,
		d.IntParam("fastk", 14), d.IntParam("slowk", 3), talib.SMA,
		d.IntParam("slowd", 3), talib.SMA)
	return []column{{name + "_K", k}, {name + "_D", dl}}
}

func (t *Talib) stochf(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	k, dl := talib.StochF(high, low, closes, d.IntParam("fastk", 5), d.IntParam("fastd", 3), talib.SMA)
	return []column{{name + "_K", k}, {name + "_D", dl}}
}

func (t *Talib) stochrsi(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	k, dl := talib.StochRsi(closes, d.IntParam("length", 14), d.IntParam("fastk", 5), d.IntParam("fastd", 3), talib.SMA)
	return []column{{name + "_K", k}, {name + "_D", dl}}
}

func (t *Talib) ultosc(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	return []column{{name, talib.UltOsc(high, low, closes,
		d.IntParam("length1", 7), d.IntParam("length2", 14), d.IntParam("length3", 28))}}
}

func (t *Talib) macd(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	line, signal, hist := talib.Macd(closes, d.IntParam("fast", 12), d.IntParam("slow", 26), d.IntParam("signal", 9))
	return []column{{name + "_MACD", line}, {name + "_SIGNAL", signal}, {name + "_HIST", hist}}
}

func (t *Talib) bbands(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	k := d.Param("std", 2.0)
	upper, middle, lower := talib.BBands(closes, d.IntParam("length", 20), k, k, talib.SMA)
	return []column{{name + "_UPPER", upper}, {name + "_MIDDLE", middle}, {name + "_LOWER", lower}}
}

func (t *Talib) ad(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, closes, volume := ohlcv(f)
	return []column{{name, talib.Ad(high, low, closes, volume)}}
}

func (t *Talib) adosc(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, closes, volume := ohlcv(f)
	return []column{{name, talib.AdOsc(high, low, closes, volume, d.IntParam("fast", 3), d.IntParam("slow", 10))}}
}

func (t *Talib) obv(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, _, _, closes, volume := ohlcv(f)
	return []column{{name, talib.Obv(closes, volume)}}
}

func (t *Talib) trange(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	return []column{{name, talib.TRange(high, low, closes)}}
}
