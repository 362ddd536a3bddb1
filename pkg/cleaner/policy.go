package cleaner

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

type redirectKind int

const (
	redirectNever redirectKind = iota
	redirectAlways
	redirectAllowedDomains
)

// RedirectPolicy decides whether a URL may be resolved through one redirect hop
// before it is cleaned. The zero value never allows resolution.
type RedirectPolicy struct {
	kind    redirectKind
	domains []string
}

func Never() RedirectPolicy {
	return RedirectPolicy{kind: redirectNever}
}

func Always() RedirectPolicy {
	return RedirectPolicy{kind: redirectAlways}
}

// AllowedDomains allows resolution for hosts ending with one of the given
// suffixes. Matching is a plain suffix test, so "t.cn" also admits "at.cn".
func AllowedDomains(suffixes ...string) RedirectPolicy {
	domains := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		domains = append(domains, asciiDomain(s))
	}
	return RedirectPolicy{kind: redirectAllowedDomains, domains: domains}
}

// ParseRedirectPolicy converts a decoded configuration value into a policy:
// nil, "" or "none" is Never, "*" is Always and a list of strings is
// AllowedDomains.
func ParseRedirectPolicy(v any) (RedirectPolicy, error) {
	switch t := v.(type) {
	case nil:
		return Never(), nil
	case string:
		switch strings.TrimSpace(t) {
		case "", "none":
			return Never(), nil
		case "*":
			return Always(), nil
		}
		return RedirectPolicy{}, fmt.Errorf("unknown redirect policy: %q", t)
	case []string:
		return AllowedDomains(t...), nil
	case []any:
		domains := make([]string, 0, len(t))
		for i, d := range t {
			s, ok := d.(string)
			if !ok {
				return RedirectPolicy{}, fmt.Errorf("redirect domain #%d is %T, want string", i, d)
			}
			domains = append(domains, s)
		}
		return AllowedDomains(domains...), nil
	default:
		return RedirectPolicy{}, fmt.Errorf("unsupported redirect policy type %T", v)
	}
}

func (p RedirectPolicy) Test(u *url.URL) bool {
	switch p.kind {
	case redirectNever:
		return false
	case redirectAlways:
		return true
	case redirectAllowedDomains:
		domain := domainOf(u)
		for _, d := range p.domains {
			if strings.HasSuffix(domain, d) {
				return true
			}
		}
		return false
	default:
		panic(fmt.Sprintf("cleaner: unknown redirect policy kind %d", p.kind))
	}
}

func (p RedirectPolicy) Domains() []string {
	return append([]string(nil), p.domains...)
}

func (p RedirectPolicy) String() string {
	switch p.kind {
	case redirectAlways:
		return "*"
	case redirectAllowedDomains:
		return "[" + strings.Join(p.domains, ", ") + "]"
	default:
		return "none"
	}
}

// domainOf returns the ASCII domain of u, or "" when the host is empty or an
// IP literal.
func domainOf(u *url.URL) string {
	if u == nil {
		return ""
	}
	host := u.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	return asciiDomain(host)
}

func asciiDomain(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if a, err := idna.Lookup.ToASCII(s); err == nil {
		s = a
	}
	return strings.ToLower(s)
}
