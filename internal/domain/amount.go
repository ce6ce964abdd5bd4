package domain

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a human-denominated decimal string ("0.3") into
// smallest currency units for the given number of decimals. The engine core
// only ever sees the resulting opaque integer.
func ParseAmount(s string, decimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("parse amount %q: negative", s)
	}

	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("parse amount %q: more than %d decimal places", s, decimals)
	}

	units, err := uint256.FromDecimal(scaled.String())
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return units, nil
}

// FormatAmount renders smallest units back into a human decimal string.
func FormatAmount(units *uint256.Int, decimals int32) string {
	if units == nil {
		return "0"
	}
	d, err := decimal.NewFromString(units.Dec())
	if err != nil {
		// units.Dec() is always a valid decimal integer
		return units.Dec()
	}
	return d.Shift(-decimals).String()
}
