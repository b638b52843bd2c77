// Package format renders portfolio values for display. The tiers mirror the
// wallet-style presentation: sub-cent values collapse to "<$0.01", large
// totals switch to K/M suffixes.
package format

import (
	"fmt"
	"strconv"
	"strings"
)

// USD formats a dollar value with tiered precision and K/M suffixes.
func USD(v float64) string {
	switch {
	case v == 0:
		return "$0.00"
	case v < 0.01:
		return "<$0.01"
	case v < 1:
		return fmt.Sprintf("$%.3f", v)
	case v < 10000:
		return fmt.Sprintf("$%.2f", v)
	case v < 1000000:
		return fmt.Sprintf("$%.1fK", v/1000)
	case v < 10000000:
		return fmt.Sprintf("$%.2fM", v/1000000)
	default:
		return fmt.Sprintf("$%.1fM", v/1000000)
	}
}

// Price formats a token price: two to six significant fraction digits for
// prices at or above a dollar, eight below.
func Price(p float64) string {
	if p >= 1 {
		s := strconv.FormatFloat(p, 'f', 6, 64)
		s = strings.TrimRight(s, "0")
		if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 < 2 {
			s = s + strings.Repeat("0", 2-(len(s)-i-1))
		}
		return s
	}
	return strconv.FormatFloat(p, 'f', 8, 64)
}

// Percent formats a signed 24h change, e.g. "+2.45%".
func Percent(p float64) string {
	if p >= 0 {
		return fmt.Sprintf("+%.2f%%", p)
	}
	return fmt.Sprintf("%.2f%%", p)
}

// ShortAddress compresses a hex address to the 0x1234...abcd display form.
func ShortAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
