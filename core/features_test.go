package core

import (
	"errors"
	"testing"
)

func TestApplyRounds_SelectorVariants(t *testing.T) {
	cases := []struct {
		name     string
		selector string
		enabled  []string
		disabled []string
	}{
		{
			name:     "single round",
			selector: "1",
			enabled:  []string{"drive", "gmail", "calendar", "docs", "sheets", "slides"},
			disabled: []string{"contacts", "ai", "cloud-iam"},
		},
		{
			name:     "comma list",
			selector: "1,2",
			enabled:  []string{"drive", "contacts", "youtube"},
			disabled: []string{"ai", "cloud-billing"},
		},
		{
			name:     "range",
			selector: "1-3",
			enabled:  []string{"drive", "tasks", "vision"},
			disabled: []string{"cloud-monitoring"},
		},
		{
			name:     "all",
			selector: "all",
			enabled:  []string{"drive", "meet", "translate", "cloud-iam"},
		},
		{
			name:     "out of range numbers are tolerated no-ops",
			selector: "2,9",
			enabled:  []string{"contacts", "forms"},
			disabled: []string{"drive", "ai"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			features, err := ApplyRounds(nil, tc.selector)
			if err != nil {
				t.Fatalf("apply rounds %q: %v", tc.selector, err)
			}
			for _, name := range tc.enabled {
				if !features[name] {
					t.Fatalf("expected %q enabled for selector %q", name, tc.selector)
				}
			}
			for _, name := range tc.disabled {
				if features[name] {
					t.Fatalf("expected %q disabled for selector %q", name, tc.selector)
				}
			}
		})
	}
}

func TestApplyRounds_RebuildsFromScratch(t *testing.T) {
	current := map[string]bool{"ai": true, "drive": false}
	features, err := ApplyRounds(current, "1")
	if err != nil {
		t.Fatalf("apply rounds: %v", err)
	}
	if features["ai"] {
		t.Fatalf("expected previously enabled ai to be reset by selector")
	}
	if !features["drive"] {
		t.Fatalf("expected drive enabled by round 1")
	}
}

func TestApplyRounds_MalformedSelectors(t *testing.T) {
	for _, selector := range []string{"abc", "1,x", "3-1", "1-"} {
		if _, err := ApplyRounds(nil, selector); err == nil {
			t.Fatalf("expected error for selector %q", selector)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	base, err := ApplyRounds(nil, "1")
	if err != nil {
		t.Fatalf("apply rounds: %v", err)
	}

	features, err := ApplyOverrides(base, []string{"+ai", "-gmail", "contacts"})
	if err != nil {
		t.Fatalf("apply overrides: %v", err)
	}
	if !features["ai"] {
		t.Fatalf("expected +ai to enable ai")
	}
	if features["gmail"] {
		t.Fatalf("expected -gmail to disable gmail")
	}
	if !features["contacts"] {
		t.Fatalf("expected bare token to enable contacts")
	}
	if !features["drive"] {
		t.Fatalf("expected untouched features to keep their state")
	}
	if base["ai"] {
		t.Fatalf("expected overrides to leave the input map unmodified")
	}
}

func TestApplyOverrides_UnknownFeature(t *testing.T) {
	_, err := ApplyOverrides(DefaultFeatures(), []string{"+nonsense"})
	if err == nil {
		t.Fatalf("expected unknown feature error")
	}
	if !errors.Is(err, ErrUnknownFeature) {
		t.Fatalf("expected ErrUnknownFeature, got %v", err)
	}
}

func TestDefaultFeatures_FreeTierOnly(t *testing.T) {
	features := DefaultFeatures()
	for _, name := range []string{"drive", "gmail", "contacts", "youtube"} {
		if !features[name] {
			t.Fatalf("expected default feature %q enabled", name)
		}
	}
	for _, name := range []string{"ai", "speech", "cloud-iam", "cloud-billing"} {
		if features[name] {
			t.Fatalf("expected default feature %q disabled", name)
		}
	}
}
