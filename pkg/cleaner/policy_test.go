package cleaner

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectPolicyTest(t *testing.T) {
	tests := []struct {
		name   string
		policy RedirectPolicy
		url    string
		want   bool
	}{
		{name: "zero value is never", policy: RedirectPolicy{}, url: "https://b23.tv/x", want: false},
		{name: "never", policy: Never(), url: "https://b23.tv/x", want: false},
		{name: "always", policy: Always(), url: "https://anything.example/x", want: true},
		{name: "exact domain", policy: AllowedDomains("b23.tv", "t.cn"), url: "https://t.cn/abc", want: true},
		{name: "subdomain", policy: AllowedDomains("b23.tv"), url: "https://m.b23.tv/abc", want: true},
		{name: "plain suffix", policy: AllowedDomains("t.cn"), url: "https://at.cn/abc", want: true},
		{name: "not listed", policy: AllowedDomains("b23.tv"), url: "https://example.com/abc", want: false},
		{name: "port ignored", policy: AllowedDomains("b23.tv"), url: "https://b23.tv:8443/abc", want: true},
		{name: "case insensitive", policy: AllowedDomains("B23.TV"), url: "https://B23.tv/abc", want: true},
		{name: "ip literal has no domain", policy: AllowedDomains("1"), url: "http://10.0.0.1/x", want: false},
		{name: "idn host", policy: AllowedDomains("xn--mller-kva.de"), url: "https://link.müller.de/x", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.policy.Test(u))
		})
	}
}

func TestParseRedirectPolicy(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		{name: "nil", in: nil, want: "none"},
		{name: "empty", in: "", want: "none"},
		{name: "none", in: "none", want: "none"},
		{name: "star", in: "*", want: "*"},
		{name: "string list", in: []string{"b23.tv", "t.cn"}, want: "[b23.tv, t.cn]"},
		{name: "decoded list", in: []any{"b23.tv"}, want: "[b23.tv]"},
		{name: "unknown word", in: "all", wantErr: true},
		{name: "bad element", in: []any{"b23.tv", 3}, wantErr: true},
		{name: "bad type", in: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRedirectPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestAllowedDomainsNormalizesSuffixes(t *testing.T) {
	p := AllowedDomains(" B23.tv. ", "müller.de")
	assert.Equal(t, []string{"b23.tv", "xn--mller-kva.de"}, p.Domains())
}
