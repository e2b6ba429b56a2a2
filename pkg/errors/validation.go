package errors

import (
	"strings"
	"unicode"
)

// ValidateEntityID validates a node, container, or edge identifier.
// Entity IDs flow into cache keys, snapshot files, and DOT output, so the
// rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslash)
//   - Maximum length of 256 characters
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "entity ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidID, "entity ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "entity ID contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidID, "entity ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateSnapshotName validates a snapshot name for file-backed stores.
// It ensures the name is a simple basename without path components.
func ValidateSnapshotName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSnapshot, "snapshot name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidSnapshot, "snapshot name cannot contain path separators")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidSnapshot, "snapshot name cannot be a hidden file")
	}

	return nil
}
