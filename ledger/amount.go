package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT NORMALIZER - Raw cell value to canonical amount
// =============================================================================

var (
	// "5M", "12 m": digits followed by the millions unit letter.
	millionsPattern = regexp.MustCompile(`^(\d+)\s*[Mm]$`)

	// Everything that cannot be part of a signed decimal.
	nonNumericPattern = regexp.MustCompile(`[^0-9+\-.]`)

	maxAmount = decimal.NewFromInt(math.MaxInt64)
)

// millionsFactor converts the digits before the unit letter into currency units.
const millionsFactor = 1000

// NormalizeAmount parses one raw cell value into a non-negative amount.
//
// Strings use the spreadsheet convention: "." separates thousands and ","
// separates decimals, so "10.500" is 10500 and "10,5" is 10. The fractional
// part is truncated. Native numbers are truncated directly. Anything that
// cannot be parsed, and anything negative, yields 0.
func NormalizeAmount(raw any) Amount {
	switch v := raw.(type) {
	case nil:
		return 0
	case Amount:
		return clampAmount(decimal.NewFromInt(int64(v)))
	case int:
		return clampAmount(decimal.NewFromInt(int64(v)))
	case int32:
		return clampAmount(decimal.NewFromInt(int64(v)))
	case int64:
		return clampAmount(decimal.NewFromInt(v))
	case float32:
		return normalizeFloat(float64(v))
	case float64:
		return normalizeFloat(v)
	case decimal.Decimal:
		return clampAmount(v)
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return clampAmount(d)
		}
		return normalizeString(v.String())
	case string:
		return normalizeString(v)
	default:
		return normalizeString(fmt.Sprint(v))
	}
}

// NormalizeCount is NormalizeAmount for tallies such as registrant counts.
func NormalizeCount(raw any) int {
	n := NormalizeAmount(raw)
	if int64(n) > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func normalizeFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return clampAmount(decimal.NewFromFloat(f))
}

func normalizeString(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if m := millionsPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0
		}
		return clampAmount(decimal.NewFromInt(n).Mul(decimal.NewFromInt(millionsFactor)))
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = nonNumericPattern.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "+")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return clampAmount(d)
}

// addAmounts sums two non-negative amounts, saturating at MaxInt64.
func addAmounts(a, b Amount) Amount {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// mulAmount multiplies a non-negative amount by n, saturating at MaxInt64.
func mulAmount(a Amount, n int) Amount {
	if a <= 0 || n <= 0 {
		return 0
	}
	if a > math.MaxInt64/Amount(n) {
		return math.MaxInt64
	}
	return a * Amount(n)
}

// clampAmount truncates toward zero and bounds the result to [0, MaxInt64].
func clampAmount(d decimal.Decimal) Amount {
	d = d.Truncate(0)
	if d.IsNegative() {
		return 0
	}
	if d.GreaterThan(maxAmount) {
		return Amount(math.MaxInt64)
	}
	return Amount(d.IntPart())
}
