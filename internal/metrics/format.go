package metrics

import "strconv"

// FormatNumber renders a metric value in plain decimal notation. Whole
// numbers have no fraction and no value is ever printed with an exponent.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
