package extract

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/stplive/stp-live/internal/normalize"
)

// Link is a hyperlink as found in a document.
type Link struct {
	Href string
	Text string
}

var anchorPattern = regexp.MustCompile(`(?is)<a\b[^>]*?\bhref\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a\s*>`)

// ScanLinks finds every <a href> in raw markup without building a DOM, so it still
// works on documents the parser would restructure.
func ScanLinks(body string) []Link {
	matches := anchorPattern.FindAllStringSubmatch(body, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, Link{
			Href: html.UnescapeString(strings.TrimSpace(m[1])),
			Text: normalize.Text(m[2]),
		})
	}
	return links
}

// anchors collects href and collapsed text of the selected <a> elements.
func anchors(sel *goquery.Selection) []Link {
	links := make([]Link, 0, sel.Length())
	sel.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		links = append(links, Link{Href: strings.TrimSpace(href), Text: normalize.Collapse(a.Text())})
	})
	return links
}

// resolve returns href as an absolute http(s) URL relative to base.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}
	return abs.String(), true
}

// samePage reports whether two URLs address the same page, ignoring fragment and trailing slash.
func samePage(a, b string) bool {
	return pageKey(a) == pageKey(b)
}

func pageKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

func sameHost(a *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || a == nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), a.Hostname())
}

func longerThan(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}

func parseBase(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}
