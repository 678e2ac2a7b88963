package card

import (
	"fmt"
	"math"
	"strconv"
)

var magnitudes = []struct {
	limit  float64
	suffix string
}{
	{1e9, "b"},
	{1e6, "m"},
	{1e3, "k"},
}

// Humanize shortens a number with a k, m or b suffix: 999 stays "999",
// 1000 is "1k" and 1500000 is "1.5m".
func Humanize(v any) (string, error) {
	n, ok := toFloat(v)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
	for _, m := range magnitudes {
		if math.Abs(n) >= m.limit {
			return strconv.FormatFloat(n/m.limit, 'f', -1, 64) + m.suffix, nil
		}
	}
	return strconv.FormatFloat(n, 'f', -1, 64), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
