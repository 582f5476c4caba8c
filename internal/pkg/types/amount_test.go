package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	t.Run("whole amount", func(t *testing.T) {
		v, err := ParseDecimal("10", 6)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(10000000), v)
	})

	t.Run("fractional amount", func(t *testing.T) {
		v, err := ParseDecimal("10.5", 6)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(10500000), v)
	})

	t.Run("full fractional precision", func(t *testing.T) {
		v, err := ParseDecimal("0.000001", 6)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(1), v)
	})

	t.Run("zero decimals", func(t *testing.T) {
		v, err := ParseDecimal("42", 0)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(42), v)
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		v, err := ParseDecimal("  1.5 ", 2)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(150), v)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseDecimal("", 6)
		assert.ErrorIs(t, err, ErrMalformedAmount)
	})

	t.Run("too many fractional digits", func(t *testing.T) {
		_, err := ParseDecimal("1.1234567", 6)
		assert.ErrorIs(t, err, ErrMalformedAmount)
	})

	t.Run("multiple decimal points", func(t *testing.T) {
		_, err := ParseDecimal("1.2.3", 6)
		assert.ErrorIs(t, err, ErrMalformedAmount)
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := ParseDecimal("ten", 6)
		assert.ErrorIs(t, err, ErrMalformedAmount)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := ParseDecimal("-1", 6)
		assert.ErrorIs(t, err, ErrMalformedAmount)
	})
}

func TestFormatDecimal(t *testing.T) {
	t.Run("trims trailing fractional zeros", func(t *testing.T) {
		assert.Equal(t, "10.5", FormatDecimal(big.NewInt(10500000), 6))
	})

	t.Run("whole amount", func(t *testing.T) {
		assert.Equal(t, "10", FormatDecimal(big.NewInt(10000000), 6))
	})

	t.Run("amount smaller than one", func(t *testing.T) {
		assert.Equal(t, "0.000001", FormatDecimal(big.NewInt(1), 6))
	})

	t.Run("zero", func(t *testing.T) {
		assert.Equal(t, "0", FormatDecimal(big.NewInt(0), 6))
	})

	t.Run("nil value", func(t *testing.T) {
		assert.Equal(t, "0", FormatDecimal(nil, 6))
	})

	t.Run("zero decimals", func(t *testing.T) {
		assert.Equal(t, "42", FormatDecimal(big.NewInt(42), 0))
	})

	t.Run("negative value", func(t *testing.T) {
		assert.Equal(t, "-1.5", FormatDecimal(big.NewInt(-1500000), 6))
	})
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, amount := range []string{"10.5", "0.000001", "123456789", "0.1"} {
		v, err := ParseDecimal(amount, 6)
		require.NoError(t, err)
		assert.Equal(t, amount, FormatDecimal(v, 6))
	}
}
