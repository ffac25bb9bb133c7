package report

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// NotAvailable is shown in place of a non-finite metric.
const NotAvailable = "N/A"

// FormatFixed renders v with two decimals. Exact halves round away from zero
// and a non-finite value renders as NotAvailable.
func FormatFixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	if v == 0 {
		v = 0 // drop the sign of -0
	}

	abs := math.Abs(v)
	out := strconv.FormatFloat(abs, 'f', 2, 64)

	// strconv rounds exact ties to even; settle those upward instead.
	scaled := new(big.Float).SetPrec(256).SetFloat64(abs)
	scaled.Mul(scaled, big.NewFloat(100))
	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) == 0 {
		whole.Add(whole, big.NewInt(1))
		digits := whole.String()
		for len(digits) < 3 {
			digits = "0" + digits
		}
		out = digits[:len(digits)-2] + "." + digits[len(digits)-2:]
	}

	if math.Signbit(v) {
		return "-" + out
	}

	return out
}

// FormatPercent is FormatFixed followed by a percent sign, or NotAvailable.
func FormatPercent(v float64) string {
	s := FormatFixed(v)
	if s == NotAvailable {
		return s
	}

	return s + "%"
}

// FormatValues joins values in their shortest decimal form.
func FormatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	return strings.Join(parts, ", ")
}

// formatNumber abbreviates large magnitudes for compact labels.
func formatNumber(num float64) string {
	switch abs := math.Abs(num); {
	case math.IsNaN(num) || math.IsInf(num, 0):
		return NotAvailable
	case abs >= 1000000:
		return fmt.Sprintf("%.2fM", num/1000000)
	case abs >= 1000:
		return fmt.Sprintf("%.1fK", num/1000)
	}

	return fmt.Sprintf("%.0f", num)
}

// Slug turns a city name into a file-name stem: letters, digits, '-' and '_'
// are kept, spaces become '-', everything else is dropped.
func Slug(city string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, city)
	if name == "" {
		return "city"
	}

	return name
}
