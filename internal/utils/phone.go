package utils

import "strings"

// MobileDigits is the length of a national mobile number
const MobileDigits = 10

// NormalizeMobile drops every non-digit and keeps the last ten digits
func NormalizeMobile(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > MobileDigits {
		digits = digits[len(digits)-MobileDigits:]
	}
	return digits
}

// IsValidMobile reports whether s is exactly ten digits
func IsValidMobile(s string) bool {
	if len(s) != MobileDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
