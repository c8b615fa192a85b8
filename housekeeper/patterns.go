package housekeeper

import (
	"fmt"
	"regexp"
)

// DefaultPatterns is the built-in unwanted-file set: scene-release site
// artifacts, OS metadata files, and generic junk extensions. All patterns
// are matched case-insensitively against a file's base name only.
var DefaultPatterns = []string{
	`www\.YTS\.MX\.jpg$`,
	`www\.YTS\.AM\.jpg$`,
	`www\.YTS\.LT\.jpg$`,
	`www\.YTS\.AG\.jpg$`,
	`www\.YIFY-TORRENTS\.COM\.jpg$`,
	`YIFYStatus\.com\.txt$`,
	`YTSProxies\.com\.txt$`,
	`YTSYifyUP123 \(TOR\)\.txt$`,
	`^\.DS_Store$`,
	`^Thumbs\.db$`,
	`^desktop\.ini$`,
	`\.tmp$`,
	`\.temp$`,
	`\.log$`,
	`\.cache$`,
	`\.bak$`,
	`\.backup$`,
}

// PatternSet is an ordered set of compiled unwanted-file patterns. Order is
// load-bearing: the first pattern a file matches is recorded as the match.
type PatternSet struct {
	sources  []string
	compiled []*regexp.Regexp
}

// CompilePatterns builds a PatternSet from the given pattern strings,
// falling back to DefaultPatterns when none are supplied. Every pattern is
// compiled case-insensitively; an invalid pattern fails the whole set so
// bad overrides are rejected at the boundary.
func CompilePatterns(patterns []string) (*PatternSet, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	set := &PatternSet{
		sources:  append([]string(nil), patterns...),
		compiled: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		set.compiled = append(set.compiled, re)
	}
	return set, nil
}

// Match tests a base name against the set in order and returns the source
// string of the first pattern that matches.
func (s *PatternSet) Match(name string) (string, bool) {
	for i, re := range s.compiled {
		if re.MatchString(name) {
			return s.sources[i], true
		}
	}
	return "", false
}

// Sources returns the pattern strings in their supplied order.
func (s *PatternSet) Sources() []string {
	return append([]string(nil), s.sources...)
}
