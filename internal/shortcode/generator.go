// Package shortcode produces the identifiers handed out by the shorten endpoint.
package shortcode

import "github.com/google/uuid"

// Length is the number of characters in every generated code.
const Length = 8

// Generate returns a new short code: the first eight characters of the
// canonical form of a random (version 4) UUID. Those characters are the
// first 32 bits of the UUID rendered as lowercase hex.
//
// Uniqueness is probabilistic. Stores reject a duplicate with a conflict
// and callers decide whether to try again.
func Generate() string {
	return uuid.NewString()[:Length]
}

// Valid reports whether code has the shape Generate produces.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
