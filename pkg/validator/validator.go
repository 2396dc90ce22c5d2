package validator

import (
	"net/url"
	"strings"
)

// ValidateRequestURL checks the url field of a shorten request. Only presence
// is checked: the target is stored exactly as submitted, whitespace included.
func ValidateRequestURL(raw *string) error {
	if raw == nil {
		return ErrMissingURL
	}
	if *raw == "" {
		return ErrEmptyURL
	}
	return nil
}

// ValidateBaseURL checks that urlStr is an absolute http(s) URL, as required
// for the public base that short URLs are composed from.
func ValidateBaseURL(urlStr string) error {
	if strings.TrimSpace(urlStr) == "" {
		return ErrEmptyURL
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return ErrInvalidURL
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return ErrInvalidScheme
	}

	if parsedURL.Host == "" {
		return ErrInvalidHost
	}

	return nil
}
