package backend

import "math"

// Rolling-window and exponential-smoothing primitives used by the manual
// backend. Warmup positions with fewer than the window of observations are
// NaN, matching the masking convention of windowed series elsewhere in the
// module. Frames never carry NaN in price columns, so inputs are assumed
// finite; derived inputs that already contain NaN propagate it.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func rollingMean(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		sum, bad := 0.0, false
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(x[j]) {
				bad = true
				break
			}
			sum += x[j]
		}
		if !bad {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd is the sample standard deviation (ddof=1) over each window.
func rollingStd(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		sum, bad := 0.0, false
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(x[j]) {
				bad = true
				break
			}
			sum += x[j]
		}
		if bad {
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := x[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

func rollingMax(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	for i := window - 1; i < len(x); i++ {
		m, bad := math.Inf(-1), false
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(x[j]) {
				bad = true
				break
			}
			if x[j] > m {
				m = x[j]
			}
		}
		if !bad {
			out[i] = m
		}
	}
	return out
}

func rollingMin(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	for i := window - 1; i < len(x); i++ {
		m, bad := math.Inf(1), false
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(x[j]) {
				bad = true
				break
			}
			if x[j] < m {
				m = x[j]
			}
		}
		if !bad {
			out[i] = m
		}
	}
	return out
}

// ewmAlpha applies the non-adjusted recursive EMA y[i] = a*x[i] + (1-a)*y[i-1],
// seeding from the first finite value. Positions before minPeriods
// observations are masked to NaN while the recursion itself keeps running,
// so later values are unaffected by the masking.
func ewmAlpha(x []float64, alpha float64, minPeriods int) []float64 {
	out := nanSlice(len(x))
	prev, seen := math.NaN(), 0
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		seen++
		if math.IsNaN(prev) {
			prev = v
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		if seen >= minPeriods {
			out[i] = prev
		}
	}
	return out
}

// ewmSpan is ewmAlpha with the span parameterization alpha = 2/(span+1).
func ewmSpan(x []float64, span int, minPeriods int) []float64 {
	return ewmAlpha(x, 2/(float64(span)+1), minPeriods)
}

// shift moves values forward by n positions (backward when n is negative),
// filling vacated slots with NaN.
func shift(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	for i := range x {
		j := i + n
		if j >= 0 && j < len(x) {
			out[j] = x[i]
		}
	}
	return out
}

// diff returns x[i] - x[i-1] with a leading NaN.
func diff(x []float64) []float64 {
	out := nanSlice(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}
