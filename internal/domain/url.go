package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that raw parses as an absolute URL with a scheme.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return nil
}

// FilterValidURLs trims every entry and keeps only the valid ones,
// preserving order.
func FilterValidURLs(raw []string) []string {
	valid := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if ValidateURL(r) == nil {
			valid = append(valid, r)
		}
	}
	return valid
}

// ExtractDomain returns the hostname without a leading "www.".
// Unparseable input is returned unchanged.
func ExtractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
