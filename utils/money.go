package utils

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatNTD formats an amount as a string like "NT$ 12,500".
// Fractional amounts keep up to two decimals ("NT$ 99.5").
func FormatNTD(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	if neg {
		amount = amount.Neg()
	}
	amount = amount.Round(2)

	whole := amount.Truncate(0)
	frac := amount.Sub(whole)

	s := whole.String()
	var b strings.Builder
	// Pre-allocate: digits + separators + prefix
	b.Grow(len(s) + len(s)/3 + 8)
	if neg {
		b.WriteString("-")
	}
	b.WriteString("NT$ ")

	// Insert separators from the left.
	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}

	if !frac.IsZero() {
		// "0.5" -> ".5"
		b.WriteString(strings.TrimPrefix(frac.String(), "0"))
	}

	return b.String()
}

// ParseAmount parses a user or sheet supplied amount.
// Blank or malformed input yields zero; thousands separators and a currency
// prefix are tolerated.
func ParseAmount(raw string) decimal.Decimal {
	s := cleanNumeric(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity parses a quantity input. Non-numeric, negative or blank input
// yields zero. Fractional input is truncated ("2.0" -> 2).
func ParseQuantity(raw string) int {
	s := cleanNumeric(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0
	}
	return int(d.IntPart())
}

func cleanNumeric(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	s = strings.TrimPrefix(s, "NT$")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// Number is a JSON number that also accepts numeric strings, blanks and null.
// Anything that does not parse decodes as zero instead of failing the whole payload.
type Number struct {
	decimal.Decimal
}

// NewNumber wraps a decimal.
func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		n.Decimal = decimal.Zero
		return nil
	}
	n.Decimal = ParseAmount(string(data))
	return nil
}

// MarshalJSON writes the number unquoted.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

// Int returns the integer part, clamped at zero. Used for quantities.
func (n Number) Int() int {
	if n.Decimal.IsNegative() {
		return 0
	}
	return int(n.Decimal.IntPart())
}
