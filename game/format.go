package game

import (
	"math"
	"strconv"
)

// FormatScore renders whole numbers without decimals and everything else
// with one decimal place. NaN and infinities render as "0".
func FormatScore(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}
	rounded := math.Round(value)
	if math.Abs(rounded-value) < epsilon {
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	return strconv.FormatFloat(value, 'f', 1, 64)
}
