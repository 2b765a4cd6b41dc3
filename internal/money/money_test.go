package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    string
		wantErr bool
	}{
		{name: "plain string", input: "20.00", want: "20"},
		{name: "currency symbol", input: "$20.00", want: "20"},
		{name: "thousands separators", input: "$1,234.56", want: "1234.56"},
		{name: "bytes from sqlite", input: []byte("15.50"), want: "15.5"},
		{name: "float", input: float64(9.99), want: "9.99"},
		{name: "int", input: int64(800), want: "800"},
		{name: "whitespace", input: " $42.00 ", want: "42"},
		{name: "empty string", input: "", wantErr: true},
		{name: "garbage", input: "twenty bucks", wantErr: true},
		{name: "nil", input: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$20.00", Format(decimal.NewFromInt(20)))
	assert.Equal(t, "$1234.56", Format(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "$0.00", Format(decimal.Zero))
}
