package urlhandler

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Regex for cleaning filenames
var (
	unsafeFilenameCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)
	multipleUnderscoresRegex = regexp.MustCompile(`_+`)
)

// NormalizeURL trims a URL, ensures it has a scheme and a host, and returns its canonical string.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", errors.New("URL is empty or only whitespace")
	}

	if !strings.Contains(trimmedURL, "://") && !strings.HasPrefix(trimmedURL, "//") {
		trimmedURL = "http://" + trimmedURL
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", trimmedURL, err)
	}

	if parsedURL.Host == "" {
		return "", errors.New("URL lacks a valid hostname")
	}

	return parsedURL.String(), nil
}

// ResolveURL resolves a (possibly relative) href against base. With a nil
// base the href must already be absolute.
func ResolveURL(href string, base *url.URL) (string, error) {
	trimmedHref := strings.TrimSpace(href)
	if trimmedHref == "" {
		return "", fmt.Errorf("href is empty")
	}

	if base == nil {
		parsedHref, err := url.Parse(trimmedHref)
		if err != nil {
			return "", fmt.Errorf("error parsing base-less href '%s': %w", trimmedHref, err)
		}
		if !parsedHref.IsAbs() {
			return "", fmt.Errorf("cannot process relative URL '%s' without a base URL", trimmedHref)
		}
		return parsedHref.String(), nil
	}

	resolved, err := base.Parse(trimmedHref)
	if err != nil {
		return "", fmt.Errorf("error resolving href '%s' with base '%s': %w", trimmedHref, base.String(), err)
	}
	return resolved.String(), nil
}

// ResolveOrRaw resolves href against base and returns the trimmed href unchanged when that fails.
func ResolveOrRaw(href string, base *url.URL) string {
	resolved, err := ResolveURL(href, base)
	if err != nil {
		return strings.TrimSpace(href)
	}
	return resolved
}

// ParseBase parses a page URL for use as a resolution base. Unparsable input yields nil.
func ParseBase(pageURL string) *url.URL {
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || !base.IsAbs() {
		return nil
	}
	return base
}

// HasSuffixFold reports whether the URL path ends in suffix, ignoring case,
// query string and fragment.
func HasSuffixFold(rawURL, suffix string) bool {
	path := rawURL
	if parsed, err := url.Parse(strings.TrimSpace(rawURL)); err == nil {
		path = parsed.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(strings.ToLower(path), strings.ToLower(suffix))
}

// HostKey returns the lowercased host (with port, if any) used to group requests per remote host.
func HostKey(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// SanitizeFilename creates a safe filename string from a URL or any input string.
func SanitizeFilename(input string) string {
	name := input
	if i := strings.Index(name, "://"); i != -1 {
		name = name[i+3:]
	}

	name = unsafeFilenameCharsRegex.ReplaceAllString(name, "_")
	name = multipleUnderscoresRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "sanitized_empty_input"
	}

	return name
}

// ValidateURLFormat validates URL format using net/url parsing (for config validation)
func ValidateURLFormat(rawURL string) error {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return fmt.Errorf("URL is empty")
	}

	parsed, err := url.ParseRequestURI(trimmedURL)
	if err != nil {
		return fmt.Errorf("invalid URL format '%s': %w", trimmedURL, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid URL format '%s': missing host", trimmedURL)
	}

	return nil
}
