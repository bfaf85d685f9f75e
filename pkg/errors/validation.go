package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// elementNameRegex matches Flow API names: a leading letter, then letters,
// digits and single underscores, not ending in an underscore.
var elementNameRegex = regexp.MustCompile(`^[A-Za-z](?:[A-Za-z0-9]|_[A-Za-z0-9])*$`)

// maxElementNameLength is the longest API name the Flow metadata format allows.
const maxElementNameLength = 80

// ValidateElementName checks that name is a well-formed Flow element API name.
// The graph builder still accepts elements that fail this check; it records a
// warning instead.
func ValidateElementName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "element name cannot be empty")
	}
	if len(name) > maxElementNameLength {
		return New(ErrCodeInvalidName, "element name too long (max %d characters): %q", maxElementNameLength, name)
	}
	if !elementNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid element name: %q", name)
	}
	return nil
}

// ValidateFlowFilename validates an uploaded flow file name.
// It must be a simple basename ending in .xml (which covers .flow-meta.xml).
func ValidateFlowFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "flow filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidInput, "flow filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidInput, "flow filename cannot be a hidden file")
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".xml") {
		return New(ErrCodeInvalidInput, "flow filename must end in .xml: %q", filename)
	}

	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal and ensures reasonable path length.
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
