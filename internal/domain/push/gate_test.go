package push

import (
	"errors"
	"testing"
)

func TestGate(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		allowed []string
		blocked []string
	}{
		{
			name:    "none",
			pattern: "^$",
			blocked: []string{"0000-0002-7638-5686", "foo"},
		},
		{
			name:    "any",
			pattern: ".*",
			allowed: []string{"0000-0002-7638-5686", "foo", ""},
		},
		{
			name:    "some",
			pattern: "^(0000-0002-7638-5686|0000-0002-7638-5687)$",
			allowed: []string{"0000-0002-7638-5686", "0000-0002-7638-5687"},
			blocked: []string{"0000-0002-7638-5688", "0000-0002-7638-56866"},
		},
		{
			name:    "unanchored prefix",
			pattern: "0000-0002",
			allowed: []string{"0000-0002-7638-5686"},
			blocked: []string{"x0000-0002-7638-5686"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gate, err := NewGate(tc.pattern)
			if err != nil {
				t.Fatalf("new gate: %v", err)
			}
			for _, orcid := range tc.allowed {
				if !gate.Allows(orcid) {
					t.Errorf("expected %q to be allowed", orcid)
				}
			}
			for _, orcid := range tc.blocked {
				if gate.Allows(orcid) {
					t.Errorf("expected %q to be blocked", orcid)
				}
			}
		})
	}
}

func TestGateInvalidPattern(t *testing.T) {
	if _, err := NewGate("(unclosed"); !errors.Is(err, ErrInvalidWhitelist) {
		t.Fatalf("expected ErrInvalidWhitelist, got %v", err)
	}
}
