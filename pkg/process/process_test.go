package process

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	page := `<html><head><base href="https://cdn.example.com/dir/"></head><body>
<a href="https://b23.tv/abc?share_source=copy">short</a>
<a href="relative?utm_source=x">rel</a>
<a href="mailto:someone@example.com">mail</a>
<a href="  ">blank</a>
<map><area href="/area"></map>
<a href="https://b23.tv/abc?share_source=copy">again</a>
</body></html>`

	links, err := ExtractLinks(strings.NewReader(page), "https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://b23.tv/abc?share_source=copy",
		"https://cdn.example.com/dir/relative?utm_source=x",
		"https://cdn.example.com/area",
	}, links)
}

func TestExtractLinksBadBase(t *testing.T) {
	_, err := ExtractLinks(strings.NewReader("<a href='/x'>x</a>"), "http://[::1")
	assert.Error(t, err)
}

func TestDedupeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "host case and www", in: "HTTPS://WWW.Example.com/a", want: "https://example.com/a"},
		{name: "empty query marker", in: "https://example.com/a?", want: "https://example.com/a"},
		{name: "sorted query", in: "https://example.com/a?b=2&a=1", want: "https://example.com/a?a=1&b=2"},
		{name: "default port and fragment", in: "https://example.com:443/a/../b#top", want: "https://example.com/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DedupeKey(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
