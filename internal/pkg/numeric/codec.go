// Package numeric converts between integer base-unit amounts and decimal
// token amounts. All arithmetic is arbitrary precision: balances near or
// above 2^53 base units must survive a round trip unchanged.
package numeric

import (
	"math/big"
	"strings"

	"indoswap/internal/domain/entity"
)

// DecodeBaseUnits interprets raw as an unsigned big integer (0x-prefixed hex
// or decimal digits) and renders it as a human-readable decimal amount with
// the given number of decimals. Trailing fractional zeros are trimmed; an
// all-zero fraction is dropped entirely.
func DecodeBaseUnits(raw string, decimals uint8) (string, error) {
	n, err := ParseBaseUnits(raw)
	if err != nil {
		return "", err
	}
	return FormatBaseUnits(n, decimals), nil
}

// EncodeBaseUnits is the inverse of DecodeBaseUnits: it turns a decimal
// amount string into a base-unit integer string. Inputs with more fractional
// digits than decimals are rejected rather than truncated.
func EncodeBaseUnits(amount string, decimals uint8) (string, error) {
	s := strings.TrimSpace(amount)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
		if frac == "" {
			return "", &entity.InvalidNumericFormatError{Input: amount}
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (frac != "" && !isDigits(frac)) {
		return "", &entity.InvalidNumericFormatError{Input: amount}
	}
	if len(frac) > int(decimals) {
		return "", &entity.InvalidNumericFormatError{Input: amount}
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	n, ok := new(big.Int).SetString(intPart+frac, 10)
	if !ok {
		return "", &entity.InvalidNumericFormatError{Input: amount}
	}
	return n.String(), nil
}

// ParseBaseUnits parses an unsigned base-unit amount, accepting both the
// 0x-prefixed hex form RPC responses use and plain decimal digits. A bare
// "0x" (the empty eth_call result) decodes to zero.
func ParseBaseUnits(raw string) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
		if s == "" {
			return new(big.Int), nil
		}
	}
	if s == "" {
		return nil, &entity.InvalidNumericFormatError{Input: raw}
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok || n.Sign() < 0 {
		return nil, &entity.InvalidNumericFormatError{Input: raw}
	}
	return n, nil
}

// FormatBaseUnits renders a non-negative big integer as a decimal amount.
func FormatBaseUnits(n *big.Int, decimals uint8) string {
	if n == nil || n.Sign() == 0 {
		return "0"
	}
	s := n.String()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	intPart := s[:len(s)-d]
	frac := strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
