package feedimport

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleKind says whether a rule keeps or rejects matching items.
type RuleKind int

const (
	Include RuleKind = iota
	Exclude
)

// Rule matches feed items by word or regular expression against title and description.
type Rule struct {
	Kind    RuleKind
	Pattern string
	Regex   bool

	re *regexp.Regexp
}

// Item is a feed entry considered for import.
type Item struct {
	Title       string
	Description string
	Link        string
}

// ParseRules builds rules from include and exclude patterns.
// A pattern prefixed with "re:" is a case-insensitive regular expression.
func ParseRules(include, exclude []string) ([]Rule, error) {
	var rules []Rule
	for _, group := range []struct {
		kind     RuleKind
		patterns []string
	}{{Include, include}, {Exclude, exclude}} {
		for _, p := range group.patterns {
			r, err := newRule(group.kind, p)
			if err != nil {
				return nil, err
			}
			rules = append(rules, r)
		}
	}
	return rules, nil
}

func newRule(kind RuleKind, pattern string) (Rule, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return Rule{}, fmt.Errorf("empty filter pattern")
	}
	expr, ok := strings.CutPrefix(pattern, "re:")
	if !ok {
		return Rule{Kind: kind, Pattern: strings.ToLower(pattern)}, nil
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid regex: %w", err)
	}
	return Rule{Kind: kind, Pattern: expr, Regex: true, re: re}, nil
}

// Match checks whether an item passes the given rules.
// Include rules use OR logic, exclude rules veto. No rules means every item passes.
func Match(item Item, rules []Rule) bool {
	if len(rules) == 0 {
		return true
	}

	text := strings.ToLower(item.Title + " " + item.Description)
	hasIncludes, included := false, false
	for _, r := range rules {
		switch r.Kind {
		case Include:
			hasIncludes = true
			if r.matches(text) {
				included = true
			}
		case Exclude:
			if r.matches(text) {
				return false
			}
		}
	}
	return !hasIncludes || included
}

func (r Rule) matches(text string) bool {
	if r.Regex {
		return r.re != nil && r.re.MatchString(text)
	}
	return strings.Contains(text, r.Pattern)
}
