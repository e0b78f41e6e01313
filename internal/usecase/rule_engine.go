package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

const regexPatternPrefix = "re:"

// Hints are accepted when they sit within this edit distance of a known
// target, and only for targets long enough for the distance to be meaningful.
const (
	hintEditDistance   = 1
	hintMinTargetRunes = 5
)

// Classification is the outcome of evaluating one axis for one record.
type Classification struct {
	Target      string
	MatchedRule string
	Source      domain.MatchSource
}

type pattern struct {
	keyword string
	re      *regexp.Regexp
}

func (p pattern) matches(normalizedName string) bool {
	if p.re != nil {
		return p.re.MatchString(normalizedName)
	}
	return hasTokenPrefix(normalizedName, p.keyword)
}

type compiledRule struct {
	id       string
	target   string
	include  []pattern
	exclude  []pattern
	priority int
}

// RuleSet is an immutable, compiled rule table. It is safe to share across
// goroutines.
type RuleSet struct {
	byAxis  map[domain.Axis][]compiledRule
	targets map[domain.Axis][]string
}

// NewRuleSet validates and compiles rules. Any malformed pattern or duplicate
// id is a configuration error; nothing is compiled lazily at classify time.
func NewRuleSet(rules []domain.ClassificationRule) (*RuleSet, error) {
	rs := &RuleSet{
		byAxis:  make(map[domain.Axis][]compiledRule),
		targets: make(map[domain.Axis][]string),
	}

	seenIDs := make(map[string]bool, len(rules))
	seenTargets := make(map[domain.Axis]map[string]bool)

	for i, rule := range rules {
		axis := rule.Axis
		if axis == "" {
			axis = domain.AxisCategory
		}
		if axis != domain.AxisCategory && axis != domain.AxisBrand {
			return nil, fmt.Errorf("%w: rule %d: unknown axis %q", domain.ErrInvalidRuleSet, i, rule.Axis)
		}

		target := strings.TrimSpace(rule.Target)
		if target == "" {
			return nil, fmt.Errorf("%w: rule %d: empty target", domain.ErrInvalidRuleSet, i)
		}

		id := strings.TrimSpace(rule.ID)
		if id == "" {
			id = fmt.Sprintf("%s:%s#%d", axis, strings.ReplaceAll(Normalize(target), " ", "-"), i)
		}
		if seenIDs[id] {
			return nil, fmt.Errorf("%w: duplicate rule id %q", domain.ErrInvalidRuleSet, id)
		}
		seenIDs[id] = true

		include, err := compilePatterns(rule.Include)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q include: %v", domain.ErrInvalidRuleSet, id, err)
		}
		if len(include) == 0 {
			return nil, fmt.Errorf("%w: rule %q has no include patterns", domain.ErrInvalidRuleSet, id)
		}
		exclude, err := compilePatterns(rule.Exclude)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q exclude: %v", domain.ErrInvalidRuleSet, id, err)
		}

		rs.byAxis[axis] = append(rs.byAxis[axis], compiledRule{
			id:       id,
			target:   target,
			include:  include,
			exclude:  exclude,
			priority: rule.Priority,
		})

		if seenTargets[axis] == nil {
			seenTargets[axis] = make(map[string]bool)
		}
		if !seenTargets[axis][target] {
			seenTargets[axis][target] = true
			rs.targets[axis] = append(rs.targets[axis], target)
		}
	}

	for axis := range rs.byAxis {
		sort.SliceStable(rs.byAxis[axis], func(a, b int) bool {
			return rs.byAxis[axis][a].priority > rs.byAxis[axis][b].priority
		})
	}

	return rs, nil
}

// compilePatterns turns raw include/exclude entries into matchers. Keywords
// are normalized with the same function used on product names.
func compilePatterns(raw []string) ([]pattern, error) {
	out := make([]pattern, 0, len(raw))
	for _, entry := range raw {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, regexPatternPrefix) {
			expr := strings.TrimSpace(strings.TrimPrefix(trimmed, regexPatternPrefix))
			if expr == "" {
				return nil, fmt.Errorf("empty regular expression")
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", entry, err)
			}
			out = append(out, pattern{re: re})
			continue
		}

		keyword := Normalize(trimmed)
		if keyword == "" {
			return nil, fmt.Errorf("keyword %q normalizes to nothing", entry)
		}
		out = append(out, pattern{keyword: keyword})
	}
	return out, nil
}

// Classify evaluates one axis against an already-normalized name.
//
// Rules are visited by descending priority, ties in declaration order. The
// first rule whose include set matches decides the axis: its target wins
// unless one of its exclude patterns also matches, in which case the axis
// yields the default. Neither lower-priority rules nor the hint are consulted
// after an include match.
//
// The hint (typically the record's current value) is used only when no rule
// included the name, and only if it names a target this rule set already
// knows. An empty name always yields the default.
func (rs *RuleSet) Classify(normalizedName string, axis domain.Axis, hint string) Classification {
	if normalizedName == "" {
		return Classification{Target: defaultTarget(axis), Source: domain.SourceDefault}
	}

	for _, rule := range rs.byAxis[axis] {
		if !anyMatch(rule.include, normalizedName) {
			continue
		}
		if anyMatch(rule.exclude, normalizedName) {
			return Classification{Target: defaultTarget(axis), Source: domain.SourceDefault}
		}
		return Classification{Target: rule.target, MatchedRule: rule.id, Source: domain.SourceRule}
	}

	if target, ok := rs.canonicalTarget(axis, hint); ok {
		return Classification{Target: target, Source: domain.SourceHint}
	}

	return Classification{Target: defaultTarget(axis), Source: domain.SourceDefault}
}

// Targets returns the distinct targets of an axis in declaration order.
func (rs *RuleSet) Targets(axis domain.Axis) []string {
	out := make([]string, len(rs.targets[axis]))
	copy(out, rs.targets[axis])
	return out
}

// Len returns the number of compiled rules on an axis.
func (rs *RuleSet) Len(axis domain.Axis) int {
	return len(rs.byAxis[axis])
}

func (rs *RuleSet) canonicalTarget(axis domain.Axis, hint string) (string, bool) {
	normalizedHint := Normalize(hint)
	if normalizedHint == "" {
		return "", false
	}

	for _, target := range rs.targets[axis] {
		if Normalize(target) == normalizedHint {
			return target, true
		}
	}

	for _, target := range rs.targets[axis] {
		normalizedTarget := Normalize(target)
		if len([]rune(normalizedTarget)) < hintMinTargetRunes {
			continue
		}
		if levenshteinDistance(normalizedTarget, normalizedHint) <= hintEditDistance {
			return target, true
		}
	}

	return "", false
}

func defaultTarget(axis domain.Axis) string {
	if axis == domain.AxisCategory {
		return domain.CategoryUnclassified
	}
	return ""
}

func anyMatch(patterns []pattern, normalizedName string) bool {
	for _, p := range patterns {
		if p.matches(normalizedName) {
			return true
		}
	}
	return false
}

// hasTokenPrefix reports whether keyword occurs in name starting at a token
// boundary. The end is left open so "rtx" matches "rtx4060".
func hasTokenPrefix(name, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.HasPrefix(name, keyword) || strings.Contains(name, " "+keyword)
}
