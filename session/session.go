// Package session manages the cookie and token credentials that authenticate
// calls to the platform on behalf of one account.
package session

import (
	"strings"
	"time"
)

// DefaultCookieDomain is the platform root domain cookie records are
// normalized to when the persisted record carries no domain of its own.
const DefaultCookieDomain = ".xiaohongshu.com"

// Cookie is one browser cookie record as persisted on disk.
type Cookie struct {
	Name    string  `json:"name"`
	Value   string  `json:"value"`
	Domain  string  `json:"domain,omitempty"`
	Path    string  `json:"path,omitempty"`
	Expires float64 `json:"expires,omitempty"`
}

// Session is the combination of cookies and access token for one account.
type Session struct {
	Cookies     []Cookie
	Token       string
	TokenExpiry time.Time
}

// Empty reports whether the session carries no credentials at all.
func (s *Session) Empty() bool {
	return len(s.Cookies) == 0 && s.Token == ""
}

// CookieValue returns the value of the named cookie, or "" when absent.
func (s *Session) CookieValue(name string) string {
	for _, c := range s.Cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// CookieHeader renders the cookie set as a Cookie request header value.
func (s *Session) CookieHeader() string {
	pairs := make([]string, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// TokenValid reports whether the access token is present and unexpired at now.
func (s *Session) TokenValid(now time.Time) bool {
	return s.Token != "" && s.TokenExpiry.After(now)
}

// NormalizeCookies fills in the platform root domain and "/" for records
// missing domain or path, so they can be attached to a browser context or
// HTTP client as-is.
func NormalizeCookies(cookies []Cookie, domain string) []Cookie {
	out := make([]Cookie, len(cookies))
	for i, c := range cookies {
		if c.Domain == "" {
			c.Domain = domain
		}
		if c.Path == "" {
			c.Path = "/"
		}
		out[i] = c
	}
	return out
}

// ParseCookieHeader parses a "name=value; name=value" header string into
// cookie records. Malformed segments are skipped.
func ParseCookieHeader(header string) []Cookie {
	var cookies []Cookie
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, Cookie{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return cookies
}
