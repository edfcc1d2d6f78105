package catalog

// entries is the static indicator table. Each name appears exactly once,
// under the backend that natively serves it; cross-backend coverage comes
// from the dispatcher fallback chain, not duplicate declarations.
//
// Parameter names are generic (length, fast, slow, signal, fastk, fastd);
// each backend adapter translates them to its own argument names.
var entries = []Descriptor{
	// Manual implementations, always available.
	{Name: "sma", Kind: KindManual, Fn: "sma", Params: map[string]float64{"length": 20}, MinBars: 20},
	{Name: "ema", Kind: KindManual, Fn: "ema", Params: map[string]float64{"length": 20}, MinBars: 20},
	{Name: "rsi", Kind: KindManual, Fn: "rsi", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "bbands", Kind: KindManual, Fn: "bbands", Params: map[string]float64{"length": 20, "std": 2.0}, MinBars: 20},
	{Name: "macd", Kind: KindManual, Fn: "macd", Params: map[string]float64{"fast": 12, "slow": 26, "signal": 9}, MinBars: 26},
	{Name: "atr", Kind: KindManual, Fn: "atr", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "vwap", Kind: KindManual, Fn: "vwap", Params: map[string]float64{}, MinBars: 1},
	{Name: "ichimoku", Kind: KindManual, Fn: "ichimoku", Params: map[string]float64{"tenkan": 9, "kijun": 26, "senkou_b": 52, "shift": 26}, MinBars: 52},

	// cinar/indicator natives. The library fixes some periods internally
	// (aroon is always 25); min_bars reflects that.
	{Name: "aroon", Kind: KindCinar, Fn: "aroon", Params: map[string]float64{}, MinBars: 25},
	{Name: "kc", Kind: KindCinar, Fn: "kc", Params: map[string]float64{"length": 20}, MinBars: 20},
	{Name: "donchian", Kind: KindCinar, Fn: "donchian", Params: map[string]float64{"length": 20}, MinBars: 20},
	{Name: "stoch", Kind: KindCinar, Fn: "stoch", Params: map[string]float64{}, MinBars: 14},
	{Name: "willr", Kind: KindCinar, Fn: "willr", Params: map[string]float64{}, MinBars: 14},
	{Name: "obv", Kind: KindCinar, Fn: "obv", Params: map[string]float64{}, MinBars: 2},
	{Name: "psar", Kind: KindCinar, Fn: "psar", Params: map[string]float64{}, MinBars: 2},

	// go-talib natives: overlap studies.
	{Name: "dema", Kind: KindTalib, Fn: "DEMA", Params: map[string]float64{"length": 30}, MinBars: 30},
	{Name: "tema", Kind: KindTalib, Fn: "TEMA", Params: map[string]float64{"length": 30}, MinBars: 30},
	{Name: "trima", Kind: KindTalib, Fn: "TRIMA", Params: map[string]float64{"length": 30}, MinBars: 30},
	{Name: "kama", Kind: KindTalib, Fn: "KAMA", Params: map[string]float64{"length": 30}, MinBars: 30},
	{Name: "mama", Kind: KindTalib, Fn: "MAMA", Params: map[string]float64{"fastlimit": 0.5, "slowlimit": 0.05}, MinBars: 10},
	{Name: "t3", Kind: KindTalib, Fn: "T3", Params: map[string]float64{"length": 5, "vfactor": 0.7}, MinBars: 5},
	{Name: "wma", Kind: KindTalib, Fn: "WMA", Params: map[string]float64{"length": 20}, MinBars: 20},
	{Name: "midpoint", Kind: KindTalib, Fn: "MIDPOINT", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "midprice", Kind: KindTalib, Fn: "MIDPRICE", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "linearreg", Kind: KindTalib, Fn: "LINEARREG", Params: map[string]float64{"length": 14}, MinBars: 14},

	// go-talib natives: price transforms.
	{Name: "typprice", Kind: KindTalib, Fn: "TYPPRICE", Params: map[string]float64{}, MinBars: 1},
	{Name: "wclprice", Kind: KindTalib, Fn: "WCLPRICE", Params: map[string]float64{}, MinBars: 1},
	{Name: "avgprice", Kind: KindTalib, Fn: "AVGPRICE", Params: map[string]float64{}, MinBars: 1},
	{Name: "medprice", Kind: KindTalib, Fn: "MEDPRICE", Params: map[string]float64{}, MinBars: 1},

	// go-talib natives: momentum.
	{Name: "adx", Kind: KindTalib, Fn: "ADX", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "adxr", Kind: KindTalib, Fn: "ADXR", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "apo", Kind: KindTalib, Fn: "APO", Params: map[string]float64{"fast": 12, "slow": 26}, MinBars: 26},
	{Name: "aroonosc", Kind: KindTalib, Fn: "AROONOSC", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "bop", Kind: KindTalib, Fn: "BOP", Params: map[string]float64{}, MinBars: 1},
	{Name: "cci", Kind: KindTalib, Fn: "CCI", Params: map[string]float64{"length": 20}, MinBars: 20},
	{Name: "cmo", Kind: KindTalib, Fn: "CMO", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "dx", Kind: KindTalib, Fn: "DX", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "mfi", Kind: KindTalib, Fn: "MFI", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "minus_di", Kind: KindTalib, Fn: "MINUS_DI", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "plus_di", Kind: KindTalib, Fn: "PLUS_DI", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "minus_dm", Kind: KindTalib, Fn: "MINUS_DM", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "plus_dm", Kind: KindTalib, Fn: "PLUS_DM", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "mom", Kind: KindTalib, Fn: "MOM", Params: map[string]float64{"length": 10}, MinBars: 10},
	{Name: "ppo", Kind: KindTalib, Fn: "PPO", Params: map[string]float64{"fast": 12, "slow": 26}, MinBars: 26},
	{Name: "roc", Kind: KindTalib, Fn: "ROC", Params: map[string]float64{"length": 10}, MinBars: 10},
	{Name: "rocp", Kind: KindTalib, Fn: "ROCP", Params: map[string]float64{"length": 10}, MinBars: 10},
	{Name: "rocr", Kind: KindTalib, Fn: "ROCR", Params: map[string]float64{"length": 10}, MinBars: 10},
	{Name: "rocr100", Kind: KindTalib, Fn: "ROCR100", Params: map[string]float64{"length": 10}, MinBars: 10},
	{Name: "stochf", Kind: KindTalib, Fn: "STOCHF", Params: map[string]float64{"fastk": 5, "fastd": 3}, MinBars: 5},
	{Name: "stochrsi", Kind: KindTalib, Fn: "STOCHRSI", Params: map[string]float64{"length": 14, "fastk": 5, "fastd": 3}, MinBars: 14},
	{Name: "trix", Kind: KindTalib, Fn: "TRIX", Params: map[string]float64{"length": 30}, MinBars: 30},
	{Name: "ultosc", Kind: KindTalib, Fn: "ULTOSC", Params: map[string]float64{"length1": 7, "length2": 14, "length3": 28}, MinBars: 28},

	// go-talib natives: volume and volatility.
	{Name: "ad", Kind: KindTalib, Fn: "AD", Params: map[string]float64{}, MinBars: 2},
	{Name: "adosc", Kind: KindTalib, Fn: "ADOSC", Params: map[string]float64{"fast": 3, "slow": 10}, MinBars: 10},
	{Name: "natr", Kind: KindTalib, Fn: "NATR", Params: map[string]float64{"length": 14}, MinBars: 14},
	{Name: "trange", Kind: KindTalib, Fn: "TRANGE", Params: map[string]float64{}, MinBars: 1},

	// techan natives.
	{Name: "stddev", Kind: KindTechan, Fn: "stddev", Params: map[string]float64{"length": 20}, MinBars: 20},
	{Name: "trendline", Kind: KindTechan, Fn: "trendline", Params: map[string]float64{"length": 14}, MinBars: 14},
}
