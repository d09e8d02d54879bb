package helpers

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// GravatarURL builds the default avatar URL for an email address
// (200px, "mystery man" fallback, PG rated).
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://gravatar.com/avatar/%s?s=200&d=mm&r=pg", hex.EncodeToString(sum[:]))
}
