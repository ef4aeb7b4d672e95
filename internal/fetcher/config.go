package fetcher

import "time"

const (
	DefaultUserAgent      = "PageMonitorBot/1.0"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxContentSize = 10 * 1024 * 1024
	DefaultMaxRedirects   = 10
	// maxErrorBodyBytes bounds how much of a failed response ends up in the error.
	maxErrorBodyBytes = 1024
)

// Config holds the HTTP settings used to fetch targets.
type Config struct {
	Timeout            time.Duration
	UserAgent          string
	MaxContentSize     int
	DisableRedirects   bool
	MaxRedirects       int
	InsecureSkipVerify bool
	EnableHTTP2        bool
	Proxy              string
	CustomHeaders      map[string]string

	// RequestDelay is the minimum spacing between two requests to the same host.
	RequestDelay time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgent,
		MaxContentSize:      DefaultMaxContentSize,
		MaxRedirects:        DefaultMaxRedirects,
		EnableHTTP2:         true,
		CustomHeaders:       map[string]string{},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}
