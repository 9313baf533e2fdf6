package utils

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile("<[^>]*>")

// NewUserID issues an opaque 24-character hex identifier. Possessing the id
// is the only credential a user has.
func NewUserID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// IsUserID reports whether s looks like an id issued by NewUserID.
func IsUserID(s string) bool {
	if len(s) != 24 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Sanitize strips HTML tags and collapses whitespace into single spaces.
func Sanitize(text string) string {
	clean := htmlTagRegex.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(clean), " ")
}

// Truncate shortens text to at most maxLen bytes, appending an ellipsis when
// something was cut.
func Truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return text[:maxLen]
	}
	return text[:maxLen-3] + "..."
}
