package tagger

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"PocketTagger/internal/domain"
)

type term struct {
	re     *regexp.Regexp
	negate bool
}

type tagRule struct {
	tag        string
	conditions [][]term
}

// compileRegexes compiles every named pattern case-insensitively.
func compileRegexes(patterns map[string]string) (map[string]*regexp.Regexp, error) {
	compiled := make(map[string]*regexp.Regexp, len(patterns))
	for name, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "compile regex %q", name)
		}
		compiled[name] = re
	}
	return compiled, nil
}

// compileRules resolves regex names and orders tags by name.
func compileRules(section string, rules domain.TagRules, regexes map[string]*regexp.Regexp) ([]tagRule, error) {
	tags := make([]string, 0, len(rules))
	for tag := range rules {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	compiled := make([]tagRule, 0, len(tags))
	for _, tag := range tags {
		rule := tagRule{tag: tag}
		for _, cond := range rules[tag] {
			if len(cond) == 0 {
				continue
			}
			terms := make([]term, 0, len(cond))
			for _, name := range cond {
				negate := strings.HasPrefix(name, "!")
				name = strings.TrimPrefix(name, "!")
				re, ok := regexes[name]
				if !ok {
					return nil, errors.Errorf("%s rule %q references unknown regex %q", section, tag, name)
				}
				terms = append(terms, term{re: re, negate: negate})
			}
			rule.conditions = append(rule.conditions, terms)
		}
		compiled = append(compiled, rule)
	}
	return compiled, nil
}

// matches reports whether any condition of the rule holds for input.
func (r tagRule) matches(input string) bool {
	for _, cond := range r.conditions {
		if holds(cond, input) {
			return true
		}
	}
	return false
}

func holds(cond []term, input string) bool {
	for _, t := range cond {
		if t.re.MatchString(input) == t.negate {
			return false
		}
	}
	return true
}

// tagSet collects tags once each, in first-seen order.
type tagSet struct {
	seen map[string]struct{}
	tags []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: map[string]struct{}{}, tags: []string{}}
}

func (s *tagSet) apply(rules []tagRule, input string) {
	for _, rule := range rules {
		if _, ok := s.seen[rule.tag]; ok {
			continue
		}
		if rule.matches(input) {
			s.seen[rule.tag] = struct{}{}
			s.tags = append(s.tags, rule.tag)
		}
	}
}
