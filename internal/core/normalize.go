package core

import "strings"

// NormalizePhone reduces a phone-like string to its digits.
//
// An 11-digit number starting with the domestic trunk prefix 8 is rewritten
// to start with the country code 7, and a leading international prefix 00
// is dropped. The result is empty or ASCII digits only.
func NormalizePhone(value string) string {
	if value == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if c := value[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}

	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	return digits
}
