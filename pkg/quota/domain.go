package quota

import (
	"log/slog"
	"regexp"
	"strings"
)

// MatchEmailDomain reports whether a user's email domain matches an
// assignment's domain pattern.
//
// Supported patterns:
//
//   - Exact: "university.edu"
//   - Wildcard subdomain: "*.university.edu" (matches the base domain too)
//   - Regex: "regex:^(cs|eng)\.university\.edu$"
//   - Comma-separated list of any of the above: "university.edu,college.edu"
//
// Matching is case-insensitive. An invalid regex pattern never matches and
// is logged once per evaluation.
func MatchEmailDomain(userDomain, pattern string) bool {
	if pattern == "" || userDomain == "" {
		return false
	}

	userDomain = strings.ToLower(userDomain)

	// Comma-separated list: any member may match.
	if strings.Contains(pattern, ",") {
		for _, p := range strings.Split(pattern, ",") {
			if MatchEmailDomain(userDomain, strings.TrimSpace(p)) {
				return true
			}
		}
		return false
	}

	// Regex patterns keep their original case.
	if rest, ok := strings.CutPrefix(pattern, "regex:"); ok {
		re, err := regexp.Compile(rest)
		if err != nil {
			slog.Default().With("component", "quota.resolver").
				Warn("invalid email-domain regex pattern", "pattern", rest, "error", err)
			return false
		}
		return re.MatchString(userDomain)
	}

	pattern = strings.ToLower(pattern)

	// Wildcard subdomain.
	if base, ok := strings.CutPrefix(pattern, "*."); ok {
		return userDomain == base || strings.HasSuffix(userDomain, "."+base)
	}

	return userDomain == pattern
}
