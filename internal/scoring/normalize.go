package scoring

import "math"

// NormalizeLinear maps a count onto [0,1] against the population maximum.
// A non-positive or invalid maximum yields 0.0 rather than an error.
func NormalizeLinear(value, maxValue float64) float64 {
	if !(maxValue > 0) || math.IsNaN(value) {
		return 0
	}
	return value / maxValue
}

// NormalizeLog is log1p-scaled normalization for monetary amounts, so a
// $2,000 balance does not score ~20x a $100 balance the way linear scaling
// would. Invalid inputs yield 0.0.
func NormalizeLog(value, maxValue float64) float64 {
	if !(maxValue > 0) || math.IsNaN(value) || value < 0 {
		return 0
	}
	return math.Log1p(value) / math.Log1p(maxValue)
}
