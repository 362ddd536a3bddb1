// Package cleaner strips tracking parameters from URLs, optionally resolving
// one short-link redirect first.
package cleaner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	DefaultTimeout   = 10 * time.Second
)

// Resolver looks up the addresses of a bare host name. *net.Resolver
// satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Options configures a Cleaner. Every field is optional.
type Options struct {
	// RedirectPolicy gates redirect resolution. Defaults to Never.
	RedirectPolicy RedirectPolicy

	// Rules are tried in order; the first match wins.
	Rules []ReserveRule

	// UserAgent is sent with the redirect request. Defaults to DefaultUserAgent.
	UserAgent string

	// Timeout bounds the redirect request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Transport performs the single redirect round trip; redirects are never
	// followed. Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	// Resolver checks that a host exists before probing. Defaults to net.DefaultResolver.
	Resolver Resolver
}

// Cleaner is immutable after New and safe for concurrent use.
type Cleaner struct {
	policy    RedirectPolicy
	rules     []ReserveRule
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	resolver  Resolver
}

func New(opts Options) *Cleaner {
	c := &Cleaner{
		policy:    opts.RedirectPolicy,
		rules:     append([]ReserveRule(nil), opts.Rules...),
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		transport: opts.Transport,
		resolver:  opts.Resolver,
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.transport == nil {
		c.transport = http.DefaultTransport
	}
	if c.resolver == nil {
		c.resolver = net.DefaultResolver
	}
	return c
}

func (c *Cleaner) Policy() RedirectPolicy {
	return c.policy
}

// Clean parses raw and cleans it. See CleanURL.
func (c *Cleaner) Clean(ctx context.Context, raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInputURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrInvalidInputURL, raw)
	}
	return c.CleanURL(ctx, u)
}

// CleanURL resolves at most one redirect of u when the policy allows it and
// the host resolves, then rewrites the query of the resulting URL. Redirect
// request failures are returned as is; nothing is retried. u is not modified.
func (c *Cleaner) CleanURL(ctx context.Context, u *url.URL) (*url.URL, error) {
	working := u
	if c.shouldRequest(ctx, u) {
		resolved, err := c.resolve(ctx, u)
		if err != nil {
			return nil, err
		}
		working = resolved
	}

	cleaned := c.Rewrite(working)
	slog.Debug("url cleaned",
		slog.String("url", u.String()),
		slog.String("cleaned", cleaned.String()),
	)
	return cleaned, nil
}

func (c *Cleaner) shouldRequest(ctx context.Context, u *url.URL) bool {
	if !c.policy.Test(u) {
		return false
	}

	host := lookupName(u)
	if host == "" {
		return false
	}

	addrs, err := c.resolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		slog.Debug("host unresolvable, skipping redirect request",
			slog.String("host", host),
			slog.Any("err", err),
		)
		return false
	}
	return true
}

// lookupName returns the host of u in the form a DNS resolver accepts:
// internationalized names are converted to punycode, IP literals are kept.
func lookupName(u *url.URL) string {
	host := u.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	if a, err := idna.Lookup.ToASCII(host); err == nil {
		return a
	}
	return host
}

// resolve issues a single GET and returns the redirect target, or the
// request URL when the response is not a redirect. The request goes straight
// to the transport, which never follows redirects and leaves the Location
// header for us to parse.
//
// A relative Location is resolved against the request URL. net/url accepts
// nearly any string as a relative reference, so ErrInvalidLocationURL is only
// returned for values with a malformed authority or escape, such as
// "http://[::1".
func (c *Cleaner) resolve(ctx context.Context, u *url.URL) (*url.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.transport.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	requested := req.URL
	if resp.Request != nil {
		requested = resp.Request.URL
	}

	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		slog.Debug("request not redirected", slog.String("url", u.String()), slog.Int("status_code", resp.StatusCode))
		return requested, nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("%w: %s returned %d", ErrMissingLocation, u.Redacted(), resp.StatusCode)
	}

	// One hop only: a relative target is resolved against the request URL,
	// the target itself is not requested.
	target, err := requested.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocationURL, err)
	}

	slog.Debug("request redirected",
		slog.String("url", u.String()),
		slog.String("location", target.String()),
		slog.Int("status_code", resp.StatusCode),
	)
	return target, nil
}

// Rewrite applies the first matching rule to the query of u. A matching rule
// leaves an explicit (possibly empty) query; no match removes the query.
// Rewrite does no I/O and applying it twice yields the same URL.
func (c *Cleaner) Rewrite(u *url.URL) *url.URL {
	out := *u
	serialized := u.String()

	for _, rule := range c.rules {
		if !rule.Matches(serialized) {
			continue
		}
		out.RawQuery = filterQuery(u.RawQuery, rule)
		out.ForceQuery = out.RawQuery == ""
		return &out
	}

	out.RawQuery = ""
	out.ForceQuery = false
	return &out
}

// filterQuery keeps the pairs of rawQuery whose key is reserved by rule, in
// their original order and including duplicates.
func filterQuery(rawQuery string, rule ReserveRule) string {
	var b strings.Builder
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		k, v, _ := strings.Cut(pair, "=")
		key := unescape(k)
		if !rule.reserves(key) {
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(unescape(v)))
	}
	return b.String()
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
