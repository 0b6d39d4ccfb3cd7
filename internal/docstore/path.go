package docstore

import (
	"fmt"
	"strings"
)

const forbiddenKeyChars = ".$#[]"

// SplitPath validates p and returns its segments. Leading and trailing slashes are ignored.
func SplitPath(p string) ([]string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(p, "/")
	for _, s := range segs {
		if err := validateKey(s); err != nil {
			return nil, fmt.Errorf("%w: %q", err, p)
		}
	}
	return segs, nil
}

// Join builds a path from segments.
func Join(segs ...string) string {
	return strings.Join(segs, "/")
}

// UserPath returns users/{userID}.
func UserPath(userID string) string {
	return Join("users", userID)
}

// CollectionPath returns users/{userID}/{collection}.
func CollectionPath(userID, collection string) string {
	return Join("users", userID, collection)
}

// ItemPath returns users/{userID}/{collection}/{itemID}.
func ItemPath(userID, collection, itemID string) string {
	return Join("users", userID, collection, itemID)
}

func validateKey(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.ContainsAny(s, forbiddenKeyChars) {
		return fmt.Errorf("%w: segment %q contains one of %q", ErrInvalidPath, s, forbiddenKeyChars)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: segment %q contains a control character", ErrInvalidPath, s)
		}
	}
	return nil
}

// validateFields checks every key of an update document; keys may span several segments.
func validateFields(fields map[string]any) error {
	for k := range fields {
		if _, err := SplitPath(k); err != nil {
			return err
		}
	}
	return nil
}
