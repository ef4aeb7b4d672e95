package fetcher

import (
	"time"

	"github.com/rs/zerolog"
)

// Builder assembles a Fetcher with a fluent interface.
type Builder struct {
	cfg    Config
	logger zerolog.Logger
}

// NewBuilder starts from DefaultConfig.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{
		cfg:    DefaultConfig(),
		logger: logger,
	}
}

// WithTimeout sets the per-request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.cfg.Timeout = timeout
	return b
}

// WithUserAgent sets the User-Agent header
func (b *Builder) WithUserAgent(userAgent string) *Builder {
	b.cfg.UserAgent = userAgent
	return b
}

// WithRequestDelay sets the minimum delay between requests to the same host
func (b *Builder) WithRequestDelay(delay time.Duration) *Builder {
	b.cfg.RequestDelay = delay
	return b
}

// WithMaxContentSize sets the maximum accepted body size in bytes
func (b *Builder) WithMaxContentSize(size int) *Builder {
	b.cfg.MaxContentSize = size
	return b
}

// WithInsecureSkipVerify sets whether to skip TLS verification
func (b *Builder) WithInsecureSkipVerify(skip bool) *Builder {
	b.cfg.InsecureSkipVerify = skip
	return b
}

// WithRedirects enables or disables following redirects
func (b *Builder) WithRedirects(follow bool, max int) *Builder {
	b.cfg.DisableRedirects = !follow
	b.cfg.MaxRedirects = max
	return b
}

// WithProxy routes every request through proxy
func (b *Builder) WithProxy(proxy string) *Builder {
	b.cfg.Proxy = proxy
	return b
}

// WithHeader adds a header sent with every request
func (b *Builder) WithHeader(key, value string) *Builder {
	if b.cfg.CustomHeaders == nil {
		b.cfg.CustomHeaders = map[string]string{}
	}
	b.cfg.CustomHeaders[key] = value
	return b
}

// Build creates the Fetcher
func (b *Builder) Build() (*Fetcher, error) {
	return NewFetcher(b.cfg, b.logger)
}
