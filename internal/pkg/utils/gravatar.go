package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GetGravatarURL builds the avatar URL for an email address. Gravatar hashes
// the lowercased, trimmed address with MD5; "mp" is the anonymous fallback.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = 200
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	digest := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", digest, size)
}
