package whatsapp

import "strings"

// NormalizeRecipient strips everything but digits: the Cloud API expects
// the full international number without '+'.
func NormalizeRecipient(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
