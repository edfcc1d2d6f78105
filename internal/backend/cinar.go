package backend

import (
	"fmt"
	"strings"

	"github.com/cinar/indicator"

	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/frame"
)

// cinarFn computes output columns for one bound cinar/indicator function.
// name is the catalog indicator name; output columns derive from it so a
// fallback computation is labeled after the indicator, not the library.
type cinarFn func(f *frame.Frame, name string, d catalog.Descriptor) []column

// Cinar wraps github.com/cinar/indicator. The library fixes some periods
// internally (Macd is 12/26/9, Aroon is 25, BollingerBands is 20), so for
// those bindings descriptor parameters beyond the defaults have no effect.
type Cinar struct {
	fns map[string]cinarFn
}

func NewCinar() *Cinar {
	c := &Cinar{}
	c.fns = map[string]cinarFn{
		// Natively owned descriptors.
		"aroon":    c.aroon,
		"kc":       c.keltner,
		"donchian": c.donchian,
		"stoch":    c.stoch,
		"willr":    c.willr,
		"obv":      c.obv,
		"psar":     c.psar,
		// Fallback coverage for indicators owned by other backends.
		"sma":    c.sma,
		"ema":    c.ema,
		"dema":   c.dema,
		"rsi":    c.rsi,
		"bbands": c.bbands,
		"macd":   c.macd,
		"atr":    c.atr,
	}
	return c
}

func (c *Cinar) Kind() catalog.Kind { return catalog.KindCinar }

func (c *Cinar) Has(fnID string) bool {
	_, ok := c.fns[lowerID(fnID)]
	return ok
}

func (c *Cinar) Apply(f *frame.Frame, name string, d catalog.Descriptor) (ok bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			ok, reason = false, panicReason(r)
		}
	}()
	fn, found := c.fns[lowerID(d.Fn)]
	if !found {
		return false, fmt.Sprintf("cinar function %s not found", d.Fn)
	}
	if ok, reason := gate(f, d, nil); !ok {
		return false, reason
	}
	return mergeColumns(f, fn(f, strings.ToUpper(name), d))
}

func (c *Cinar) aroon(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, _, _ := ohlcv(f)
	up, down := indicator.Aroon(high, low)
	return []column{{name + "_UP", up}, {name + "_DOWN", down}}
}

func (c *Cinar) keltner(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	middle, upper, lower := indicator.KeltnerChannel(d.IntParam("length", 20), high, low, closes)
	return []column{{name + "_UPPER", upper}, {name + "_MIDDLE", middle}, {name + "_LOWER", lower}}
}

func (c *Cinar) donchian(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	upper, middle, lower := indicator.DonchianChannel(d.IntParam("length", 20), closes)
	return []column{{name + "_UPPER", upper}, {name + "_MIDDLE", middle}, {name + "_LOWER", lower}}
}

func (c *Cinar) stoch(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	k, dLine := indicator.StochasticOscillator(high, low, closes)
	return []column{{name + "_K", k}, {name + "_D", dLine}}
}

func (c *Cinar) willr(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	return []column{{name, indicator.WilliamsR(low, high, closes)}}
}

// obv bridges the library's int64 volume convention.
func (c *Cinar) obv(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, _, _, closes, volume := ohlcv(f)
	iv := make([]float64, len(volume))
	for i, v := range volume {
		iv[i] = float64(int64(v))
	}
	return []column{{name, indicator.Obv(closes, iv)}}
}

func (c *Cinar) psar(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	psar, _ := indicator.ParabolicSar(high, low, closes)
	return []column{{name, psar}}
}

func (c *Cinar) sma(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	return []column{{name, indicator.Sma(d.IntParam("length", 20), closes)}}
}

func (c *Cinar) ema(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	return []column{{name, indicator.Ema(d.IntParam("length", 20), closes)}}
}

func (c *Cinar) dema(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	return []column{{name, indicator.Dema(d.IntParam("length", 30), closes)}}
}

func (c *Cinar) rsi(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	_, rsi := indicator.RsiPeriod(d.IntParam("length", 14), closes)
	return []column{{name, rsi}}
}

func (c *Cinar) bbands(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	middle, upper, lower := indicator.BollingerBands(closes)
	return []column{{name + "_UPPER", upper}, {name + "_MIDDLE", middle}, {name + "_LOWER", lower}}
}

func (c *Cinar) macd(f *frame.Frame, name string, _ catalog.Descriptor) []column {
	_, _, _, closes, _ := ohlcv(f)
	macd, signal := indicator.Macd(closes)
	hist := make([]float64, len(macd))
	for i := range macd {
		hist[i] = macd[i] - signal[i]
	}
	return []column{{name + "_MACD", macd}, {name + "_SIGNAL", signal}, {name + "_HIST", hist}}
}

func (c *Cinar) atr(f *frame.Frame, name string, d catalog.Descriptor) []column {
	_, high, low, closes, _ := ohlcv(f)
	_, atr := indicator.Atr(d.IntParam("length", 14), high, low, closes)
	return []column{{name, atr}}
}
