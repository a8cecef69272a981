package validate

import "strings"

// Required reports whether value carries anything besides whitespace.
func Required(value string) bool {
	return len(strings.TrimSpace(value)) > 0
}
