package editor

import "strings"

// NormalizePhone returns the canonical form used everywhere a phone number is compared
// or sent: digits only, "00" international prefix dropped, one leading "+".
// Input without digits normalizes to "".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimPrefix(b.String(), "00")
	if digits == "" {
		return ""
	}
	return "+" + digits
}
