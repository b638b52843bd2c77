package numeric

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"indoswap/internal/domain/entity"
)

func TestDecodeBaseUnits(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		decimals uint8
		want     string
	}{
		{"wei to ether", "1234500000000000000", 18, "1.2345"},
		{"hex input", "0x112210f47de98115", 18, "1.234567890123456789"},
		{"fewer digits than decimals", "5", 18, "0.000000000000000005"},
		{"exact decimals boundary", "100000000000000000", 18, "0.1"},
		{"zero", "0", 18, "0"},
		{"empty eth_call result", "0x", 18, "0"},
		{"all-zero fraction trimmed", "3000000000000000000", 18, "3"},
		{"zero decimals", "42", 0, "42"},
		{"six decimals", "1500000", 6, "1.5"},
		{"above 2^53", "123456789012345678901234567890", 18, "123456789012.34567890123456789"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeBaseUnits(tc.raw, tc.decimals)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeBaseUnitsInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.5", "-5", "0xzz"} {
		_, err := DecodeBaseUnits(raw, 18)
		require.Error(t, err, "input %q", raw)
		var numErr *entity.InvalidNumericFormatError
		require.ErrorAs(t, err, &numErr)
	}
}

func TestEncodeBaseUnits(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"1.2345", 18, "1234500000000000000"},
		{"0.000000000000000005", 18, "5"},
		{"3", 18, "3000000000000000000"},
		{"0", 18, "0"},
		{"1.5", 6, "1500000"},
		{"42", 0, "42"},
	}
	for _, tc := range cases {
		got, err := EncodeBaseUnits(tc.amount, tc.decimals)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestEncodeBaseUnitsInvalid(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
	}{
		{"", 18},
		{"1.", 18},
		{"1.2.3", 18},
		{"-1", 18},
		{"abc", 18},
		{"1.2345678", 6}, // more fractional digits than decimals
	}
	for _, tc := range cases {
		_, err := EncodeBaseUnits(tc.amount, tc.decimals)
		require.Error(t, err, "input %q", tc.amount)
	}
}

// decode(encode(x, d), d) == x for non-negative integers, with no precision
// loss past 2^53.
func TestRoundTrip(t *testing.T) {
	values := []string{
		"0", "1", "7", "1000", "9007199254740993", // 2^53 + 1
		"18446744073709551617", "340282366920938463463374607431768211457",
	}
	for _, x := range values {
		for _, d := range []uint8{0, 1, 6, 8, 18} {
			encoded, err := EncodeBaseUnits(x, d)
			require.NoError(t, err)
			decoded, err := DecodeBaseUnits(encoded, d)
			require.NoError(t, err)
			require.Equal(t, x, decoded, "x=%s d=%d", x, d)
		}
	}
}

// The reverse direction: a base-unit integer survives decode-then-encode.
func TestRoundTripBaseUnits(t *testing.T) {
	values := []string{"1", "999999999999999999", "123456789012345678901234567890"}
	for _, raw := range values {
		for _, d := range []uint8{6, 18} {
			decoded, err := DecodeBaseUnits(raw, d)
			require.NoError(t, err)
			encoded, err := EncodeBaseUnits(decoded, d)
			require.NoError(t, err)
			require.Equal(t, raw, encoded, "raw=%s d=%d", raw, d)
		}
	}
}

func TestFormatBaseUnitsNil(t *testing.T) {
	require.Equal(t, "0", FormatBaseUnits(nil, 18))
	require.Equal(t, "0", FormatBaseUnits(big.NewInt(0), 18))
}
