package utils

import (
	"strings"
)

// ValidateUsername checks the username constraint on multipart form fields,
// where gin's binding tags don't apply. JSON bodies carry the same rule as a
// min=3 binding tag instead.
func ValidateUsername(username string) bool {
	return len(strings.TrimSpace(username)) >= 3
}
