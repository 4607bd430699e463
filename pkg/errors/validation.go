package errors

import (
	"strings"
	"unicode"
)

// MaxNameLength bounds entity, attribute and relationship names.
const MaxNameLength = 256

// ValidateName checks a diagram element name. The kind ("entity",
// "attribute", "relationship") is only used in the message.
//
// Rules:
//   - No empty or whitespace-only names
//   - No control characters
//   - Maximum length of [MaxNameLength] bytes
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "%s name cannot be empty", kind)
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "%s name too long (max %d characters)", kind, MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s name %q contains control characters", kind, name)
		}
	}
	return nil
}

// ValidateFilePath validates a local input or output path.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidInput, "path contains null byte")
	}
	return nil
}
