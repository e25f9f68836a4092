package marks

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Totals is the derived pair stored with every student record.
type Totals struct {
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ComputeTotals sums the marks and derives the percentage against 100 points per
// recorded subject. An empty map counts as one subject so the percentage is 0.
// NaN and infinite values count as 0. Bounds are not enforced here.
func ComputeTotals(marks map[string]float64) Totals {
	var total float64
	// Sum in key order so the float result does not depend on map iteration.
	for _, k := range slices.Sorted(maps.Keys(marks)) {
		total += finite(marks[k])
	}

	// Finite addends can still overflow the sum.
	total = finite(total)

	count := len(marks)
	if count == 0 {
		count = 1
	}

	return Totals{
		Total:      total,
		Percentage: Round(total/(float64(count)*100)*100, 2),
	}
}

// Round rounds v to the given number of decimal places, halves away from zero.
// A scaled value within a few ULPs of a half is treated as that half, so
// representation noise (1.005*100 == 100.49999999999999) does not flip it down
// while a genuine 0.49999995 still rounds down. The result is always finite.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	scale := math.Pow10(places)
	x := v * scale
	if math.IsInf(x, 0) || math.Abs(x) >= 1<<52 {
		// No fractional digits left to round at this magnitude.
		return v
	}

	whole := math.Trunc(x)
	frac := math.Abs(x - whole)
	if math.Abs(frac-0.5) <= halfTolerance*ulp(x) {
		x = whole + math.Copysign(0.5, x)
	}
	return finite(math.Round(x) / scale)
}

const halfTolerance = 4

func ulp(x float64) float64 {
	a := math.Abs(x)
	return math.Nextafter(a, math.Inf(1)) - a
}

// Coerce converts raw form values into numeric marks. Keys are kept as given.
func Coerce(raw map[string]any) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		out[k] = Number(v)
	}
	return out
}

// Number converts a decoded JSON value into a mark. Numbers and numeric strings
// convert; blanks, nulls, booleans and anything unparseable become 0.
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return finite(f)
	default:
		return 0
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
