package ledger_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/cuota-ledger/ledger"
)

// =============================================================================
// AMOUNT NORMALIZER TESTS
// =============================================================================

func TestNormalizeAmount_Strings(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want ledger.Amount
	}{
		{"thousands separator", "10.500", 10500},
		{"decimal comma truncates", "10,5", 10},
		{"millions shorthand", "5M", 5000},
		{"millions lower case with space", "12 m", 12000},
		{"currency symbol", "$ 20.000", 20000},
		{"surrounding spaces", "  7000 ", 7000},
		{"leading plus", "+300", 300},
		{"negative clamps to zero", "-500", 0},
		{"empty", "", 0},
		{"blank", "   ", 0},
		{"garbage", "abc", 0},
		{"two signs", "+-5", 0},
		{"several dots are thousands", "1.234.567", 1234567},
		{"huge value clamps", "99999999999999999999999", ledger.Amount(math.MaxInt64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.NormalizeAmount(tt.raw))
		})
	}
}

func TestNormalizeAmount_NativeValues(t *testing.T) {
	assert.Equal(t, ledger.Amount(0), ledger.NormalizeAmount(nil))
	assert.Equal(t, ledger.Amount(15000), ledger.NormalizeAmount(15000))
	assert.Equal(t, ledger.Amount(15000), ledger.NormalizeAmount(int64(15000)))
	assert.Equal(t, ledger.Amount(10), ledger.NormalizeAmount(10.9))
	assert.Equal(t, ledger.Amount(0), ledger.NormalizeAmount(-3.0))
	assert.Equal(t, ledger.Amount(0), ledger.NormalizeAmount(math.NaN()))
	assert.Equal(t, ledger.Amount(0), ledger.NormalizeAmount(math.Inf(1)))
	assert.Equal(t, ledger.Amount(2500), ledger.NormalizeAmount(decimal.RequireFromString("2500.75")))
	assert.Equal(t, ledger.Amount(1200), ledger.NormalizeAmount(json.Number("1200")))
	assert.Equal(t, ledger.Amount(30000), ledger.NormalizeAmount(ledger.Amount(30000)))
}

func TestNormalizeAmount_NeverNegative(t *testing.T) {
	// GIVEN: A mix of hostile inputs
	// WHEN: Normalizing each
	// THEN: No result is negative
	inputs := []any{"-1", "--1", "-5M", -1, int32(-9), float32(-1.5), "(-)", "- 1.000", true, struct{}{}}
	for _, in := range inputs {
		assert.GreaterOrEqual(t, int64(ledger.NormalizeAmount(in)), int64(0), "input %v", in)
	}
}

func TestNormalizeCount(t *testing.T) {
	assert.Equal(t, 4, ledger.NormalizeCount("4"))
	assert.Equal(t, 0, ledger.NormalizeCount("n/a"))
	assert.Equal(t, 0, ledger.NormalizeCount(nil))
	assert.Equal(t, math.MaxInt32, ledger.NormalizeCount("99999999999"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$10.000", ledger.Amount(10000).String())
	assert.Equal(t, "$0", ledger.Amount(0).String())
	assert.Equal(t, "$999", ledger.Amount(999).String())
	assert.Equal(t, "$1.234.567", ledger.Amount(1234567).String())
	assert.Equal(t, "ARS 5.000", ledger.FormatAmount(5000, "ARS "))
	assert.Equal(t, "-$1.000", ledger.FormatAmount(-1000, "$"))
}
