// Package phone normalizes and validates customer phone numbers against
// the Omani numbering plan.
package phone

import "strings"

const (
	// CountryCode is the Oman international calling code.
	CountryCode = "968"

	localLength = 8
)

// Normalize canonicalizes a free-form phone string into the local-number
// form: digits only, with the international call prefix, country code and
// trunk zero stripped. Prefixes are stripped to a fixpoint, so normalizing
// an already-normalized number is a no-op. It is a total function and
// returns best-effort digits even when the result is not a valid local
// number.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	for {
		switch {
		// International call prefix (00968...)
		case strings.HasPrefix(digits, "00"):
			digits = digits[2:]
		// Country calling code (968...); the length guard keeps valid
		// 8-digit locals that happen to start with 968 intact
		case strings.HasPrefix(digits, CountryCode) && len(digits) > localLength:
			digits = digits[len(CountryCode):]
		// Leading trunk zero
		case strings.HasPrefix(digits, "0"):
			digits = digits[1:]
		default:
			return digits
		}
	}
}

// IsValid reports whether local is a valid Omani subscriber number:
// exactly 8 digits, starting with 7 (mobile) or 9 (mobile/fixed).
func IsValid(local string) bool {
	if len(local) != localLength {
		return false
	}
	for _, r := range local {
		if r < '0' || r > '9' {
			return false
		}
	}
	return local[0] == '7' || local[0] == '9'
}

// International returns the provider-facing international form of a local
// number, without a leading plus sign.
func International(local string) string {
	return CountryCode + local
}
