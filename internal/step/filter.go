package step

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern represents a compiled filter condition supporting substring and
// regex matching. Raw strings wrapped in slashes compile as regexps.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Filter returns the steps selected by only/skip patterns, preserving
// declaration order. With no only patterns every step is a candidate.
func Filter(steps []Step, only, skip []Pattern) []Step {
	if len(steps) == 0 {
		return nil
	}
	result := make([]Step, 0, len(steps))
	for _, s := range steps {
		if len(only) > 0 && !matches(s, only) {
			continue
		}
		if len(skip) > 0 && matches(s, skip) {
			continue
		}
		result = append(result, s)
	}
	return result
}

func matches(s Step, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(s.Name) || pattern.Match(s.Command.String()) {
			return true
		}
	}
	return false
}
