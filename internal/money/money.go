package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a value cannot be read as a monetary amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Parse normalizes a monetary value into a decimal. Values read from the
// store or returned by the model may carry a currency symbol and thousands
// separators (e.g. "$1,234.56"); those are stripped before parsing.
func Parse(v any) (decimal.Decimal, error) {
	switch value := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("%w: nil value", ErrInvalidAmount)
	case decimal.Decimal:
		return value, nil
	case float64:
		return decimal.NewFromFloat(value), nil
	case int64:
		return decimal.NewFromInt(value), nil
	case []byte:
		return parseString(string(value))
	case string:
		return parseString(value)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

func parseString(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Format renders an amount as $XX.XX for user-facing text.
func Format(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
