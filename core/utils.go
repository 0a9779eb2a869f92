package core

import "strings"

// CleanString trims surrounding whitespace from `s`. Pass true to also
// lowercase the result; usernames and emails are stored lowercased so lookups
// stay case-insensitive.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}
