// Package fetcher performs the conditional HTTP GETs behind every poll.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

// Result is a fetched response. On a 304 only the status and validators are set.
type Result struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
	Validators  models.CacheValidators
}

// NotModified reports whether the server answered 304.
func (r *Result) NotModified() bool {
	return r != nil && r.StatusCode == http.StatusNotModified
}

// Fetcher fetches target content with conditional GETs, a per-host delay
// and a bounded body size.
type Fetcher struct {
	client  *http.Client
	cfg     Config
	limiter *hostLimiter
	logger  zerolog.Logger
}

// NewFetcher creates a Fetcher from cfg. Zero fields take their defaults.
func NewFetcher(cfg Config, logger zerolog.Logger) (*Fetcher, error) {
	cfg = withDefaults(cfg)
	logger = logger.With().Str("component", "Fetcher").Logger()

	client, err := newHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		client:  client,
		cfg:     cfg,
		limiter: newHostLimiter(cfg.RequestDelay),
		logger:  logger,
	}, nil
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}
	if cfg.MaxContentSize <= 0 {
		cfg.MaxContentSize = d.MaxContentSize
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = d.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = d.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = d.IdleConnTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = d.DialTimeout
	}
	if cfg.TLSHandshakeTimeout <= 0 {
		cfg.TLSHandshakeTimeout = d.TLSHandshakeTimeout
	}
	return cfg
}

// Fetch issues a GET for targetURL, sending the stored validators as
// If-None-Match / If-Modified-Since. A 304 returns the result together with
// common.ErrNotModified. Every other failure is a *common.TransportError.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, validators models.CacheValidators) (*Result, error) {
	if err := f.limiter.Wait(ctx, targetURL); err != nil {
		return nil, common.NewTransportError(targetURL, "waiting for request slot", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, common.NewTransportError(targetURL, "creating request", err)
	}

	for key, value := range f.cfg.CustomHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	if validators.ETag != "" {
		req.Header.Set("If-None-Match", validators.ETag)
	}
	if validators.LastModified != "" {
		req.Header.Set("If-Modified-Since", validators.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug().Err(err).Str("url", targetURL).Msg("HTTP request failed")
		return nil, common.NewTransportError(targetURL, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	result := &Result{
		URL:         targetURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Validators: models.CacheValidators{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		},
	}

	if resp.StatusCode == http.StatusNotModified {
		f.logger.Debug().Str("url", targetURL).Msg("Content not modified (304)")
		return result, common.ErrNotModified
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		f.logger.Debug().Str("url", targetURL).Int("status_code", resp.StatusCode).Msg("Received non-success HTTP status")
		return nil, common.NewHTTPStatusError(targetURL, resp.StatusCode, string(errorBody))
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, common.NewTransportError(targetURL, "reading response body", err)
	}
	result.Body = decodeBody(body, result.ContentType)

	f.logger.Debug().
		Str("url", targetURL).
		Str("content_type", result.ContentType).
		Int("size", len(result.Body)).
		Msg("Content fetched successfully")
	return result, nil
}

var errContentTooLarge = errors.New("content too large")

func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	limit := int64(f.cfg.MaxContentSize)
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: %d bytes (max: %d bytes)", errContentTooLarge, resp.ContentLength, limit)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", errContentTooLarge, limit)
	}
	return body, nil
}

// decodeBody converts HTML and text bodies to UTF-8 using the declared or
// sniffed charset. XML and JSON are left alone: the XML parser honours the
// prolog encoding and JSON is UTF-8 by definition.
func decodeBody(body []byte, contentType string) []byte {
	lowered := strings.ToLower(contentType)
	if len(body) == 0 || strings.Contains(lowered, "xml") || strings.Contains(lowered, "json") {
		return body
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body
	}
	return decoded
}
