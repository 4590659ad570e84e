package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with an
// underscore.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// ObjectKey builds a collision-resistant storage key for an upload, scoped
// under the uploading user and room:
//
//	private/{userID}/{roomID}/{unix-ms}-{token}-{sanitized-name}
func ObjectKey(userID uint, roomID string, filename string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	return fmt.Sprintf("private/%d/%s/%d-%s-%s",
		userID, roomID, time.Now().UnixMilli(), token, SanitizeFilename(filename))
}
