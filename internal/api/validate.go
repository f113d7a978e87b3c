package api

import (
	"strings"
	"unicode/utf8"

	svcErr "github.com/oggyb/picfeed/internal/errors"
)

// ValidateComment trims content and enforces 1..MaxCommentLength
// characters. Clients run it before submitting; the server runs it again.
func ValidateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", svcErr.InvalidArgument("content is required and cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", svcErr.InvalidArgument("content must be 1000 characters or less")
	}
	return content, nil
}
