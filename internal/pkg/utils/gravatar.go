package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GravatarURL builds the Gravatar URL for an email address. Falls back to
// the "mystery person" placeholder when the address has no Gravatar.
func GravatarURL(email string, size int) string {
	if size <= 0 {
		size = 200
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(normalized))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
