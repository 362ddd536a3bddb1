package cleaner

import (
	"fmt"
	"regexp"
)

// Matcher is anything able to test a serialized URL. *regexp.Regexp
// satisfies it.
type Matcher interface {
	MatchString(s string) bool
}

// ReserveRule names the query parameters to keep for URLs matching its
// pattern. An empty key set keeps nothing but still counts as a match.
type ReserveRule struct {
	matcher Matcher
	keys    []string
	reserve map[string]struct{}
}

func NewReserveRule(m Matcher, keys []string) ReserveRule {
	r := ReserveRule{
		matcher: m,
		reserve: make(map[string]struct{}, len(keys)),
	}
	for _, k := range keys {
		if _, ok := r.reserve[k]; ok {
			continue
		}
		r.reserve[k] = struct{}{}
		r.keys = append(r.keys, k)
	}
	return r
}

// CompileReserveRule compiles pattern as a regular expression matched
// against the full URL.
func CompileReserveRule(pattern string, keys []string) (ReserveRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ReserveRule{}, fmt.Errorf("%w: %w", ErrPattern, err)
	}
	return NewReserveRule(re, keys), nil
}

// MustCompileReserveRule is like CompileReserveRule but panics on a bad
// pattern.
func MustCompileReserveRule(pattern string, keys []string) ReserveRule {
	r, err := CompileReserveRule(pattern, keys)
	if err != nil {
		panic(err)
	}
	return r
}

func (r ReserveRule) Matches(rawURL string) bool {
	return r.matcher != nil && r.matcher.MatchString(rawURL)
}

func (r ReserveRule) ReserveKeys() []string {
	return append([]string(nil), r.keys...)
}

// Pattern returns the source pattern when the matcher can report one.
func (r ReserveRule) Pattern() string {
	if s, ok := r.matcher.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

func (r ReserveRule) reserves(key string) bool {
	_, ok := r.reserve[key]
	return ok
}
