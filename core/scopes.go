package core

import (
	"fmt"
	"sort"
	"strings"
)

const (
	ScopeOpenID  = "openid"
	ScopeEmail   = "email"
	ScopeProfile = "profile"
)

// scopeURLs maps the short names accepted at setup time to the scope URLs
// requested from the authorization server. Identity scopes pass through
// unchanged.
var scopeURLs = map[string]string{
	"drive":           "https://www.googleapis.com/auth/drive",
	"drive.file":      "https://www.googleapis.com/auth/drive.file",
	"drive.readonly":  "https://www.googleapis.com/auth/drive.readonly",
	"gmail.modify":    "https://www.googleapis.com/auth/gmail.modify",
	"gmail.readonly":  "https://www.googleapis.com/auth/gmail.readonly",
	"gmail.send":      "https://www.googleapis.com/auth/gmail.send",
	"calendar":        "https://www.googleapis.com/auth/calendar",
	"calendar.events": "https://www.googleapis.com/auth/calendar.events",
	"contacts":        "https://www.googleapis.com/auth/contacts",
	"tasks":           "https://www.googleapis.com/auth/tasks",
	"documents":       "https://www.googleapis.com/auth/documents",
	"spreadsheets":    "https://www.googleapis.com/auth/spreadsheets",
	"presentations":   "https://www.googleapis.com/auth/presentations",
	"forms":           "https://www.googleapis.com/auth/forms.body",
	"youtube":         "https://www.googleapis.com/auth/youtube",
	"cloud-platform":  "https://www.googleapis.com/auth/cloud-platform",
}

var identityScopes = map[string]struct{}{
	ScopeOpenID:  {},
	ScopeEmail:   {},
	ScopeProfile: {},
}

// KnownScopeNames returns the accepted short names, sorted.
func KnownScopeNames() []string {
	names := make([]string, 0, len(scopeURLs)+len(identityScopes))
	for name := range scopeURLs {
		names = append(names, name)
	}
	for name := range identityScopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveScopes maps short names to scope URLs, failing fast with every
// unknown name listed. Input order is preserved; duplicates collapse.
func ResolveScopes(names []string) ([]string, error) {
	resolved := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	var unknown []string
	for _, raw := range names {
		name := strings.TrimSpace(strings.ToLower(raw))
		if name == "" {
			continue
		}
		url, ok := scopeURLs[name]
		if !ok {
			if _, identity := identityScopes[name]; identity {
				url = name
			} else {
				unknown = append(unknown, raw)
				continue
			}
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		resolved = append(resolved, url)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, strings.Join(unknown, ", "))
	}
	return resolved, nil
}

// NormalizeScopeNames trims, lowercases, and dedupes while keeping order.
func NormalizeScopeNames(names []string) []string {
	normalized := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, raw := range names {
		name := strings.TrimSpace(strings.ToLower(raw))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	return normalized
}
