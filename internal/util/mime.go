package util

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

const sniffLen = 512

// SniffMIME reads up to 512 bytes from r to detect its content type. The
// returned reader replays the sniffed bytes followed by the rest of r.
func SniffMIME(r io.Reader) (string, io.Reader, error) {
	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}

	head := buffer[:n]
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}

func IsImageMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/")
}

// IsAllowedMIME reports whether mimeType (parameters ignored) is in allowed.
// An empty allow list admits every image type.
func IsAllowedMIME(mimeType string, allowed []string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if len(allowed) == 0 {
		return IsImageMIME(base)
	}

	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSpace(candidate), base) {
			return true
		}
	}
	return false
}

func ExtensionForMIME(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	default:
		return ""
	}
}
