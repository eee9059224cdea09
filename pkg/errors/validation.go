package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// tableNameRegex matches tag ids and table names ("001", "meta", "voice_data").
var tableNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateTableName validates a tag id or table name before it is turned
// into a file name or URL path segment.
//
// Names must be 1-128 characters of letters, digits, '_' or '-', starting
// with a letter or digit. This rules out path separators and traversal.
func ValidateTableName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidTable, "table name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidTable, "table name too long (max 128 characters)")
	}
	if !tableNameRegex.MatchString(name) {
		return New(ErrCodeInvalidTable, "invalid table name: %q", name)
	}
	return nil
}

// ValidatePath validates a relative file path inside the data directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
