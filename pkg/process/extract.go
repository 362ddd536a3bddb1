package process

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks returns the absolute http(s) links of an HTML document in
// document order, without duplicates. Relative links are resolved against
// baseURL or the document's <base href>.
func ExtractLinks(body io.Reader, baseURL string) ([]string, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	if newBaseStr := findBase(doc); newBaseStr != "" {
		if newBase, err := base.Parse(newBaseStr); err == nil {
			base = newBase
		}
	}

	seen := make(map[string]struct{})
	var links []string
	walkLinks(doc, func(href string) {
		resolved := resolve(href, base)
		if resolved == "" {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})

	return links, nil
}

func findBase(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "base" {
		if v, ok := attr(n, "href"); ok {
			return v
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findBase(c); res != "" {
			return res
		}
	}
	return ""
}

func walkLinks(n *html.Node, fn func(string)) {
	if n.Type == html.ElementNode && (n.Data == "a" || n.Data == "area") {
		if v, ok := attr(n, "href"); ok {
			if v = strings.TrimSpace(v); v != "" {
				fn(v)
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkLinks(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func resolve(ref string, base *url.URL) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	abs := base.ResolveReference(u)

	scheme := strings.ToLower(abs.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}

	return abs.String()
}
