package config

import (
	"time"
)

// MonitorConfig defines configuration for the polling service
type MonitorConfig struct {
	TargetsFile          string  `json:"targets_file,omitempty" yaml:"targets_file,omitempty" validate:"required"`
	CheckIntervalSeconds int     `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"min=1"`
	HTTPTimeoutSeconds   float64 `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"gt=0"`
	RequestDelaySeconds  float64 `json:"request_delay_seconds" yaml:"request_delay_seconds" validate:"min=0"`
	MaxConcurrentChecks  int     `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"min=1"`
	MaxContentSize       int64   `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"min=1"` // bytes
	MaxCycles            int     `json:"max_cycles,omitempty" yaml:"max_cycles,omitempty" validate:"min=0"`             // 0 means run indefinitely
	UserAgent            string  `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	InsecureSkipVerify   bool    `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	BypassCache          bool    `json:"bypass_cache" yaml:"bypass_cache"` // When true, never send conditional request headers
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		TargetsFile:          DefaultMonitorTargetsFile,
		CheckIntervalSeconds: DefaultMonitorCheckIntervalSeconds,
		HTTPTimeoutSeconds:   DefaultMonitorHTTPTimeoutSeconds,
		RequestDelaySeconds:  DefaultMonitorRequestDelaySeconds,
		MaxConcurrentChecks:  DefaultMonitorMaxConcurrentChecks,
		MaxContentSize:       DefaultMonitorMaxContentSize,
		MaxCycles:            0,
		UserAgent:            DefaultMonitorUserAgent,
		InsecureSkipVerify:   false,
		BypassCache:          false,
	}
}

// CheckInterval returns the pause between two poll cycles.
func (mc MonitorConfig) CheckInterval() time.Duration {
	return time.Duration(mc.CheckIntervalSeconds) * time.Second
}

// HTTPTimeout returns the per-request timeout.
func (mc MonitorConfig) HTTPTimeout() time.Duration {
	return secondsToDuration(mc.HTTPTimeoutSeconds)
}

// RequestDelay returns the minimum spacing between requests to one host.
func (mc MonitorConfig) RequestDelay() time.Duration {
	return secondsToDuration(mc.RequestDelaySeconds)
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
