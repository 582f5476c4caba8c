package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrMalformedAmount indicates that a decimal amount string could not be
// converted into base units of the asset.
var ErrMalformedAmount = errors.New("malformed decimal amount")

// ParseDecimal converts a human-readable decimal amount (e.g. "10.5") into the
// asset's smallest unit given its number of decimals (e.g. 6 → 10500000).
//
// The input may contain at most one decimal point and no more fractional digits
// than the asset supports. Negative amounts are rejected.
//
// Returns:
//   - The amount in base units as a big.Int.
//   - ErrMalformedAmount (wrapped with detail) if the input cannot be converted.
func ParseDecimal(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedAmount)
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if strings.Contains(frac, ".") {
		return nil, fmt.Errorf("%w: multiple decimal points in %q", ErrMalformedAmount, amount)
	}

	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", ErrMalformedAmount, amount, decimals)
	}

	// Right-pad the fractional part so whole+frac is the full base-unit figure.
	padded := frac + strings.Repeat("0", int(decimals)-len(frac))

	digits := whole + padded
	if digits == "" {
		return nil, fmt.Errorf("%w: no digits in %q", ErrMalformedAmount, amount)
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal number", ErrMalformedAmount, amount)
	}

	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount %q", ErrMalformedAmount, amount)
	}

	return v, nil
}

// FormatDecimal renders an amount in base units back into its human-readable
// decimal form, trimming trailing fractional zeros (e.g. 10500000 at 6 decimals
// → "10.5").
func FormatDecimal(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}

	s := v.String()

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	if len(s) <= int(decimals) {
		s = strings.Repeat("0", int(decimals)-len(s)+1) + s
	}

	split := len(s) - int(decimals)
	whole, frac := s[:split], s[split:]

	frac = strings.TrimRight(frac, "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
