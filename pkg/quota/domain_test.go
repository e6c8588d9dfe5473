package quota_test

import (
	"testing"

	"solara-hq/quotient/pkg/quota"
)

func TestMatchEmailDomain(t *testing.T) {
	tests := []struct {
		name       string
		userDomain string
		pattern    string
		want       bool
	}{
		{"exact match", "acme.com", "acme.com", true},
		{"exact mismatch", "other.com", "acme.com", false},
		{"case insensitive", "ACME.com", "acme.COM", true},
		{"empty pattern", "acme.com", "", false},
		{"empty domain", "", "acme.com", false},

		{"wildcard subdomain", "cs.university.edu", "*.university.edu", true},
		{"wildcard deep subdomain", "labs.cs.university.edu", "*.university.edu", true},
		{"wildcard matches base", "university.edu", "*.university.edu", true},
		{"wildcard rejects suffix trick", "eviluniversity.edu", "*.university.edu", false},
		{"wildcard rejects other domain", "college.edu", "*.university.edu", false},

		{"regex match", "cs.university.edu", `regex:^(cs|eng)\.university\.edu$`, true},
		{"regex mismatch", "math.university.edu", `regex:^(cs|eng)\.university\.edu$`, false},
		{"invalid regex never matches", "acme.com", "regex:[", false},

		{"list first member", "acme.com", "acme.com,college.edu", true},
		{"list second member", "college.edu", "acme.com, college.edu", true},
		{"list no member", "other.com", "acme.com,college.edu", false},
		{"list with wildcard member", "cs.university.edu", "acme.com,*.university.edu", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quota.MatchEmailDomain(tt.userDomain, tt.pattern); got != tt.want {
				t.Errorf("MatchEmailDomain(%q, %q) = %v, want %v", tt.userDomain, tt.pattern, got, tt.want)
			}
		})
	}
}
