package shortener

import (
	"fmt"
	"net/url"
	"strings"
)

const maxURLLength = 2048

// ValidateDestinationURL checks that a destination URL is an absolute
// http(s) URL and not a loopback address. All failures wrap ErrInvalidURL.
func ValidateDestinationURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidURL)
	}

	if len(rawURL) > maxURLLength {
		return fmt.Errorf("%w: url exceeds %d characters", ErrInvalidURL, maxURLLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: url must include http:// or https://", ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return fmt.Errorf("%w: loopback urls are not allowed", ErrInvalidURL)
	}

	return nil
}
