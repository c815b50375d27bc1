package validation

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Default maximum lengths, in characters, for user text.
const (
	PostMaxLength    = 250
	CommentMaxLength = 100
)

var strict = bluemonday.StrictPolicy()

// ContentError is returned for content that fails validation. Its message is
// safe to show to end users.
type ContentError struct {
	Message string
}

func (e *ContentError) Error() string { return e.Message }

// Content trims, strips markup and checks the length of user text.
// Length is counted in characters after trimming.
func Content(raw string, maxLen int) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", &ContentError{Message: "Content cannot be empty."}
	}

	// StrictPolicy escapes what it keeps; the API stores plain text.
	cleaned := strings.TrimSpace(html.UnescapeString(strict.Sanitize(content)))
	if cleaned == "" {
		return "", &ContentError{Message: "Content cannot be empty."}
	}
	if utf8.RuneCountInString(cleaned) > maxLen {
		return "", &ContentError{Message: fmt.Sprintf("Content exceeds %d characters.", maxLen)}
	}
	return cleaned, nil
}
