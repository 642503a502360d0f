package helpers

import (
	"errors"
	"net/url"
	"strings"
)

var trackingQueryParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"gclid":        {},
	"fbclid":       {},
	"msclkid":      {},
}

// ErrUnfetchableURL marks a URL that is not an absolute http(s) address.
var ErrUnfetchableURL = errors.New("url is not fetchable")

// FetchableURL normalises raw into an absolute http(s) URL suitable for a GET.
// A missing scheme defaults to https; the host is lowercased, the fragment and
// tracking query parameters (utm_*, fbclid, ...) are dropped.
func FetchableURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnfetchableURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, ErrUnfetchableURL
	}
	if parsed.Scheme == "" {
		// schemeless forms: example.com/path or //example.com/path
		if strings.HasPrefix(raw, "//") {
			parsed, err = url.Parse("https:" + raw)
		} else {
			parsed, err = url.Parse("https://" + raw)
		}
		if err != nil {
			return nil, ErrUnfetchableURL
		}
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, ErrUnfetchableURL
	}
	parsed.Host = strings.ToLower(parsed.Host)
	if parsed.Hostname() == "" {
		return nil, ErrUnfetchableURL
	}
	parsed.Fragment = ""
	if parsed.RawQuery != "" {
		query := parsed.Query()
		for key := range query {
			if _, drop := trackingQueryParams[strings.ToLower(key)]; drop {
				query.Del(key)
			}
		}
		parsed.RawQuery = query.Encode()
	}
	return parsed, nil
}
