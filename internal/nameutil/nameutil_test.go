package nameutil

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "feature-login", "feature-login"},
		{"slash", "feature/login", "feature_login"},
		{"spaces", "my cool session", "my_cool_session"},
		{"dots", "release.v1.2", "release_v1_2"},
		{"already_clean", "abc_123-XYZ", "abc_123-XYZ"},
		{"empty", "", ""},
		{"only_disallowed", "///", "___"},
		{"unicode", "café☕", "caf__"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for _, r := range got {
				if !allowed(r) {
					t.Fatalf("Sanitize(%q) produced disallowed rune %q", tt.in, r)
				}
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"feature/login", "a b c", "", "already-clean_1", "日本語"}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
