package org

import (
	"fmt"
	"strings"
)

// NormalizePhone strips separators from an Israeli mobile number and
// validates the 05X-XXXXXXX shape (10 digits, leading 05). A +972 prefix is
// folded back to the local form.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '+':
		default:
			return "", fmt.Errorf("org: invalid phone character %q in %q", r, phone)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "972") {
		digits = "0" + digits[3:]
	}
	if len(digits) != 10 || !strings.HasPrefix(digits, "05") {
		return "", fmt.Errorf("org: phone %q must be an Israeli mobile number (05X-XXXXXXX)", phone)
	}
	return digits, nil
}

// FormatPhone renders a normalized phone in the dashed display form
// 05X-XXXXXXX.
func FormatPhone(normalized string) string {
	if len(normalized) != 10 {
		return normalized
	}
	return normalized[:3] + "-" + normalized[3:]
}
