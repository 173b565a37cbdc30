package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FeatureRound is a numbered bundle of feature flags enabled together.
// Rounds 1 and 2 cover the free tier; later rounds gate paid or
// billing-backed capabilities.
type FeatureRound struct {
	Number   int
	Name     string
	Features []string
}

var featureRounds = []FeatureRound{
	{
		Number:   1,
		Name:     "core",
		Features: []string{"drive", "gmail", "calendar", "docs", "sheets", "slides"},
	},
	{
		Number:   2,
		Name:     "services",
		Features: []string{"contacts", "tasks", "forms", "youtube", "meet"},
	},
	{
		Number:   3,
		Name:     "ai",
		Features: []string{"ai", "speech", "vision", "translate"},
	},
	{
		Number:   4,
		Name:     "cloud-management",
		Features: []string{"cloud-iam", "cloud-billing", "cloud-monitoring"},
	},
}

// DefaultRoundSelector reflects free-tier behavior when setup is run without
// an explicit selector.
const DefaultRoundSelector = "1,2"

func FeatureRounds() []FeatureRound {
	rounds := make([]FeatureRound, 0, len(featureRounds))
	for _, round := range featureRounds {
		copied := round
		copied.Features = append([]string(nil), round.Features...)
		rounds = append(rounds, copied)
	}
	return rounds
}

// KnownFeatures returns the full feature vocabulary, sorted.
func KnownFeatures() []string {
	names := make([]string, 0, 16)
	for _, round := range featureRounds {
		names = append(names, round.Features...)
	}
	sort.Strings(names)
	return names
}

func IsKnownFeature(name string) bool {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, round := range featureRounds {
		for _, feature := range round.Features {
			if feature == name {
				return true
			}
		}
	}
	return false
}

// DefaultFeatures enables the free-tier rounds and disables everything else.
func DefaultFeatures() map[string]bool {
	features, _ := ApplyRounds(nil, DefaultRoundSelector)
	return features
}

// ApplyRounds rebuilds the feature map from a round selector: a
// comma-separated mix of round numbers ("1,2"), hyphenated ranges ("1-3"),
// or the literal "all". Every feature is first disabled, then the selected
// rounds are enabled. Round numbers outside the table are ignored as a
// tolerated no-op; malformed tokens are rejected.
func ApplyRounds(current map[string]bool, selector string) (map[string]bool, error) {
	selected, err := parseRoundSelector(selector)
	if err != nil {
		return nil, err
	}

	features := make(map[string]bool, len(current))
	for _, name := range KnownFeatures() {
		features[name] = false
	}
	for name := range current {
		features[name] = false
	}
	for _, round := range featureRounds {
		if _, ok := selected[round.Number]; !ok {
			continue
		}
		for _, name := range round.Features {
			features[name] = true
		}
	}
	return features, nil
}

// ApplyOverrides flips individual features on top of current: "+name" or a
// bare "name" enables, "-name" disables. Unknown feature names are rejected
// naming the offending token. Keys not mentioned are left untouched.
func ApplyOverrides(current map[string]bool, overrides []string) (map[string]bool, error) {
	features := make(map[string]bool, len(current))
	for name, enabled := range current {
		features[name] = enabled
	}

	for _, raw := range overrides {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		enable := true
		switch token[0] {
		case '+':
			token = token[1:]
		case '-':
			enable = false
			token = token[1:]
		}
		name := strings.TrimSpace(strings.ToLower(token))
		if name == "" || !IsKnownFeature(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, raw)
		}
		features[name] = enable
	}
	return features, nil
}

func parseRoundSelector(selector string) (map[int]struct{}, error) {
	selected := map[int]struct{}{}
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		trimmed = DefaultRoundSelector
	}
	if strings.EqualFold(trimmed, "all") {
		for _, round := range featureRounds {
			selected[round.Number] = struct{}{}
		}
		return selected, nil
	}

	for _, token := range strings.Split(trimmed, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.EqualFold(token, "all") {
			for _, round := range featureRounds {
				selected[round.Number] = struct{}{}
			}
			continue
		}
		if first, last, ok := strings.Cut(token, "-"); ok {
			start, startErr := strconv.Atoi(strings.TrimSpace(first))
			end, endErr := strconv.Atoi(strings.TrimSpace(last))
			if startErr != nil || endErr != nil || start > end {
				return nil, fmt.Errorf("core: invalid round range %q", token)
			}
			for number := start; number <= end; number++ {
				selected[number] = struct{}{}
			}
			continue
		}
		number, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("core: invalid round selector token %q", token)
		}
		selected[number] = struct{}{}
	}
	return selected, nil
}
