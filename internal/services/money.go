package services

import (
	"fmt"
	"strings"
)

// Money is stored and compared everywhere as integer minor currency units
// (kopecks). Conversion to the gateway's two-decimal major-unit string happens
// only at the gateway request boundary.

// MinorToDecimal converts an integer minor-unit amount to the gateway's
// two-decimal string form: 500000 -> "5000.00".
func MinorToDecimal(amountMinor int64) string {
	return fmt.Sprintf("%d.%02d", amountMinor/100, amountMinor%100)
}

// DecimalToMinor parses a decimal major-unit string back to minor units.
// Fractional digits beyond two are rounded half-up: "1.005" -> 101.
func DecimalToMinor(value string) (int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}

	var major int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount %q", value)
		}
		major = major*10 + int64(r-'0')
	}

	var minor int64
	for i, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount %q", value)
		}
		d := int64(r - '0')
		switch {
		case i == 0:
			minor += d * 10
		case i == 1:
			minor += d
		case i == 2:
			// round half-up on the third fractional digit
			if d >= 5 {
				minor++
			}
		}
	}

	return major*100 + minor, nil
}
