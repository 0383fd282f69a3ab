// Package nameutil provides the sanitizer used to map free-form operator
// input (display names, branch names) into identifiers safe for tmux, the
// filesystem, and git branch names.
package nameutil

import "strings"

// allowed reports whether r is safe to use unescaped in a tmux session
// name, a path component, and a git branch name.
func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}

// Sanitize replaces every rune outside [A-Za-z0-9_-] with an underscore.
// It is pure and idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if allowed(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
