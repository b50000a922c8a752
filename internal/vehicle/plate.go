package vehicle

import (
	"fmt"
	"strings"
)

// NormalizePlate strips separators from an Israeli license plate and
// validates it: 7 or 8 digits. Plates are stored normalized and formatted
// only for display.
func NormalizePlate(plate string) (string, error) {
	var b strings.Builder
	for _, r := range plate {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ':
		default:
			return "", fmt.Errorf("vehicle: invalid plate character %q in %q", r, plate)
		}
	}
	normalized := b.String()
	if len(normalized) != 7 && len(normalized) != 8 {
		return "", fmt.Errorf("vehicle: plate %q must have 7 or 8 digits, got %d", plate, len(normalized))
	}
	return normalized, nil
}

// FormatPlate renders a normalized plate in the dashed display form:
// 12-345-67 for 7 digits, 123-45-678 for 8.
func FormatPlate(normalized string) string {
	switch len(normalized) {
	case 7:
		return normalized[:2] + "-" + normalized[2:5] + "-" + normalized[5:]
	case 8:
		return normalized[:3] + "-" + normalized[3:5] + "-" + normalized[5:]
	default:
		return normalized
	}
}
