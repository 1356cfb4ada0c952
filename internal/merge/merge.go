// Package merge unions candidate records from several sources into one ordered,
// de-duplicated list.
package merge

import (
	"net"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/stplive/stp-live/internal/pipeline"
)

// undatedKey sorts events with an unknown date after every dated one.
const undatedKey = "9999-12-31"

// DedupeByURL keeps the first item for each canonical key. Order is preserved.
func DedupeByURL[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := CanonicalURL(key(item))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// CanonicalURL lowercases scheme and host, drops default ports, and sorts the query.
// The fragment is kept because it may identify an event on a shared page.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host = net.JoinHostPort(host, port)
	}
	u.Host = host
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}
	return u.String()
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// SortRaces orders events by date, then title in Croatian collation, then URL.
// Undated events go last. The input slice is sorted in place.
func SortRaces(events []pipeline.RaceEvent) {
	col := collate.New(language.Croatian, collate.IgnoreCase)
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if da, db := dateKey(a), dateKey(b); da != db {
			return da < db
		}
		if c := col.CompareString(a.Title, b.Title); c != 0 {
			return c < 0
		}
		return a.URL < b.URL
	})
}

func dateKey(ev pipeline.RaceEvent) string {
	if ev.ISODate == nil || *ev.ISODate == "" {
		return undatedKey
	}
	return *ev.ISODate
}

// Cap returns at most n leading items.
func Cap[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
