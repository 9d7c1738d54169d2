// Package phone canonicalizes raw phone strings into channel-addressable
// identifiers for the WhatsApp gateway. Normalization is pure and total:
// any input yields a deterministic output, validity is not checked here.
package phone

import (
	"strings"
)

const (
	// CountryCode is the Israeli country calling code.
	CountryCode = "972"

	trunkPrefix = "05"
	mobileDigit = '5'
	chatSuffix  = "@c.us"
)

// Normalize strips non-digits and rewrites local mobile numbers into
// international form: "0501234567" -> "972501234567".
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, trunkPrefix) {
		return CountryCode + digits[1:]
	}
	if len(digits) == 9 && digits[0] == mobileDigit {
		return CountryCode + digits
	}
	return digits
}

// ChatID builds the gateway chat identifier for a raw phone string.
func ChatID(raw string) string {
	return Normalize(raw) + chatSuffix
}
