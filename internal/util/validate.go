package util

import (
	"fmt"
	"regexp"
)

// validIdentChars matches only lowercase alphanumeric characters and underscores.
var validIdentChars = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidateIdent checks that an action or target name is a well-formed
// identifier as routing expects:
//   - At least 2 characters
//   - Only lowercase letters, digits, and underscores
//   - First character must be a letter
//   - Last character must not be an underscore
//
// Callers should normalize with NormalizeKey first so mixed-case input is
// rejected with a useful message rather than silently remapped.
func ValidateIdent(kind, name string) error {
	if len(name) < 2 {
		return fmt.Errorf("%s must be at least 2 characters, got %d", kind, len(name))
	}

	if !validIdentChars.MatchString(name) {
		return fmt.Errorf("%s %q contains invalid characters (only a-z, 0-9, and underscores are allowed)", kind, name)
	}

	first := name[0]
	if first < 'a' || first > 'z' {
		return fmt.Errorf("%s must start with a letter, got %q", kind, string(first))
	}

	if name[len(name)-1] == '_' {
		return fmt.Errorf("%s must not end with an underscore, got %q", kind, name)
	}

	return nil
}
