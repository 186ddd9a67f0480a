package logging

import (
	"log/slog"
	"net/url"
	"strings"
)

// RedactedURL wraps a url.URL for logging without exposing sensitive information
type RedactedURL struct {
	url *url.URL
}

// LogValue implements slog.LogValuer to avoid revealing passwords
func (u RedactedURL) LogValue() slog.Value {
	if u.url == nil {
		return slog.StringValue("")
	}
	return slog.StringValue(redactQuery(u.url).Redacted())
}

// RedactURL returns a safely loggable URL value
func RedactURL(url *url.URL) RedactedURL {
	return RedactedURL{url: url}
}

// RedactedStringURL is a string containing a URL for safe logging
type RedactedStringURL string

// LogValue implements slog.LogValuer to avoid revealing passwords
func (s RedactedStringURL) LogValue() slog.Value {
	u, err := url.Parse(string(s))
	if err != nil {
		return slog.StringValue(string(s))
	}
	return slog.StringValue(redactQuery(u).Redacted())
}

// RedactStringURL returns a safely loggable URL string
func RedactStringURL(s string) slog.LogValuer {
	return RedactedStringURL(s)
}

// redactQuery masks query parameters that commonly carry credentials
func redactQuery(u *url.URL) *url.URL {
	if u.RawQuery == "" {
		return u
	}
	q := u.Query()
	changed := false
	for key := range q {
		switch strings.ToLower(key) {
		case "token", "access_token", "api_key", "apikey", "secret":
			q.Set(key, "xxxxx")
			changed = true
		}
	}
	if !changed {
		return u
	}
	clone := *u
	clone.RawQuery = q.Encode()
	return &clone
}
