package domain

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query keys that vary per campaign without changing the
// underlying article, so they never participate in the fingerprint.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"ref":          {},
}

// Fingerprint derives the stable dedup key for a source URL: lowercased
// scheme and host, fragment dropped, tracking parameters removed, remaining
// query keys sorted, trailing slash trimmed. Unparseable input falls back to
// the trimmed raw string so ingestion still dedups exact repeats.
func Fingerprint(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(trimmed, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	query := u.Query()
	for key := range query {
		if _, tracking := trackingParams[strings.ToLower(key)]; tracking {
			query.Del(key)
		}
	}
	u.RawQuery = encodeSorted(query)

	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

func encodeSorted(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, value := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(value))
		}
	}
	return b.String()
}
