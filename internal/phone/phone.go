package phone

import "regexp"

var nonDigit = regexp.MustCompile(`\D`)

// Normalize strips every non-digit character from a phone number so that
// "+1 555-0100" and "15550100" resolve to the same account.
func Normalize(number string) string {
	return nonDigit.ReplaceAllString(number, "")
}

// Valid reports whether a normalized phone number has an acceptable length.
func Valid(normalized string) bool {
	n := len(normalized)
	return n >= 6 && n <= 20
}
