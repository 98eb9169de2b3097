package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"tee-studio/pkg/apierror"
)

const maxFilenameRunes = 120

var unsafeKeyChars = regexp.MustCompile(`[<>:"/\\|?*#%&{}$!'@+=` + "`" + `\s]+`)

// SanitizeFilename turns a client supplied upload name into a string that is
// safe as the last segment of an object key.
func SanitizeFilename(name string) (string, error) {
	trimmed := strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, `\`, "/")))
	if trimmed == "" || trimmed == "." || trimmed == "/" {
		return "", apierror.InvalidInput("filename cannot be empty")
	}

	builder := strings.Builder{}
	builder.Grow(len(trimmed))

	for _, char := range trimmed {
		if char == 0 || unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}

		builder.WriteRune(char)
	}

	cleaned := unsafeKeyChars.ReplaceAllString(builder.String(), "_")
	cleaned = strings.Trim(cleaned, "._")

	if cleaned == "" {
		return "", apierror.InvalidInput("filename is invalid after sanitization")
	}

	// Truncate by runes (not bytes) to avoid splitting multi-byte characters.
	runes := []rune(cleaned)
	if len(runes) > maxFilenameRunes {
		runes = runes[:maxFilenameRunes]
	}

	return string(runes), nil
}

// ProductObjectKey builds products/<userID>/<unix millis>_<filename>.
func ProductObjectKey(userID string, filename string, now time.Time) string {
	return fmt.Sprintf("products/%s/%d_%s", userID, now.UnixMilli(), filename)
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters that should be stripped from filenames.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u2060', // Word Joiner
		'\uFEFF': // Zero-Width No-Break Space / BOM
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
