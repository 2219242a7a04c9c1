package call

import "strings"

// NormalizePhone converts a raw lead phone number to E.164. Numbers without
// a country code are assumed to be Indian: leading zeros are stripped and
// +91 is prefixed. Numbers that already carry "+" only get cleaned up.
func NormalizePhone(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, raw)

	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	cleaned = strings.TrimLeft(cleaned, "0")
	if cleaned == "" {
		return ""
	}
	return "+91" + cleaned
}
