package validate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Validation failure kinds. Callers branch on these to pick a user-facing reply.
var (
	ErrNoURL       = errors.New("no URL found in input")
	ErrInvalidURL  = errors.New("URL is missing scheme or host")
	ErrUnreachable = errors.New("URL is not reachable")
	ErrNameLength  = errors.New("company name must be 2-100 characters")
	ErrNameChars   = errors.New("company name contains disallowed characters")
)

var (
	urlPattern  = regexp.MustCompile(`(http|https)://(\w+:?\w*@)?(\S+)(:[0-9]+)?(/|/\w+)*(\?\S+)?`)
	namePattern = regexp.MustCompile("^[a-zA-Zа-яА-ЯёЁ0-9\\s\\-'\"`«»]+$")
)

// URL extracts and validates a URL from free-form user input.
// It returns the trimmed URL substring on success.
func URL(input string) (string, error) {
	match := urlPattern.FindString(input)
	if match == "" {
		return "", ErrNoURL
	}

	raw := strings.TrimSpace(match)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", ErrInvalidURL
	}

	return raw, nil
}

// CompanyName validates a company name and returns it trimmed.
// Allowed: Latin and Cyrillic letters, digits, whitespace, hyphens and quote marks.
func CompanyName(input string) (string, error) {
	name := strings.TrimSpace(input)
	if len([]rune(name)) < 2 || len([]rune(name)) > 100 {
		return "", ErrNameLength
	}
	if !namePattern.MatchString(name) {
		return "", ErrNameChars
	}
	return name, nil
}

// CheckReachable probes the URL with a HEAD request and a short timeout.
// Anything but a 200 response counts as unreachable.
func CheckReachable(ctx context.Context, rawURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}
