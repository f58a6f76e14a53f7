package utils

import "strings"

// DoorPIN appends the keypad confirmation suffix to a vendor OTP
func DoorPIN(otp, suffix string) string {
	otp = strings.TrimSpace(otp)
	if otp == "" || strings.HasSuffix(otp, suffix) {
		return otp
	}
	return otp + suffix
}

// MaskDigits keeps only the last two characters, for logs
func MaskDigits(otp string) string {
	if len(otp) <= 2 {
		return strings.Repeat("*", len(otp))
	}
	return strings.Repeat("*", len(otp)-2) + otp[len(otp)-2:]
}
