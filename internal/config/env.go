package config

import (
	"strconv"
	"strings"

	"github.com/aleister1102/pagemonitor/internal/common"
)

// Environment variables that override values from the config file.
const (
	EnvMaxAtomItems         = "MAX_ATOM_ITEMS"
	EnvMaxHTMLLinks         = "MAX_HTML_LINKS"
	EnvMaxJSONItems         = "MAX_JSON_ITEMS"
	EnvRequestDelaySeconds  = "REQUEST_DELAY_SECONDS"
	EnvFetchTimeoutSeconds  = "FETCH_TIMEOUT_SECONDS"
	EnvNotifyOnFirstSeen    = "NOTIFY_ON_FIRST_SEEN"
	EnvSuppressLinkPreviews = "SUPPRESS_LINK_PREVIEWS"
	EnvDiscordWebhookURL    = "DISCORD_WEBHOOK_URL"
	EnvTargetsFile          = "TARGETS_FILE"
	EnvSnapshotDBPath       = "SNAPSHOT_DB_PATH"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnvOverrides copies every set, non-blank environment knob into cfg.
// A knob that cannot be parsed is reported as a ValidationError.
func ApplyEnvOverrides(cfg *GlobalConfig, lookup LookupFunc) error {
	o := envOverrider{lookup: lookup}

	o.intVar(EnvMaxAtomItems, &cfg.ExtractorConfig.MaxAtomItems)
	o.intVar(EnvMaxHTMLLinks, &cfg.ExtractorConfig.MaxHTMLLinks)
	o.intVar(EnvMaxJSONItems, &cfg.ExtractorConfig.MaxJSONItems)
	o.floatVar(EnvRequestDelaySeconds, &cfg.MonitorConfig.RequestDelaySeconds)
	o.floatVar(EnvFetchTimeoutSeconds, &cfg.MonitorConfig.HTTPTimeoutSeconds)
	o.boolVar(EnvNotifyOnFirstSeen, &cfg.NotificationConfig.NotifyOnFirstSeen)
	o.boolVar(EnvSuppressLinkPreviews, &cfg.NotificationConfig.SuppressLinkPreviews)
	o.stringVar(EnvDiscordWebhookURL, &cfg.NotificationConfig.DiscordWebhookURL)
	o.stringVar(EnvTargetsFile, &cfg.MonitorConfig.TargetsFile)
	o.stringVar(EnvSnapshotDBPath, &cfg.StorageConfig.SnapshotDBPath)

	return common.CombineErrors(o.errs)
}

type envOverrider struct {
	lookup LookupFunc
	errs   []error
}

func (o *envOverrider) value(key string) (string, bool) {
	raw, ok := o.lookup(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (o *envOverrider) stringVar(key string, dst *string) {
	if v, ok := o.value(key); ok {
		*dst = v
	}
}

func (o *envOverrider) intVar(key string, dst *int) {
	v, ok := o.value(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		o.errs = append(o.errs, common.NewValidationError(key, v, "must be an integer"))
		return
	}
	*dst = n
}

func (o *envOverrider) floatVar(key string, dst *float64) {
	v, ok := o.value(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		o.errs = append(o.errs, common.NewValidationError(key, v, "must be a number of seconds"))
		return
	}
	*dst = f
}

func (o *envOverrider) boolVar(key string, dst *bool) {
	v, ok := o.value(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		o.errs = append(o.errs, common.NewValidationError(key, v, "must be a boolean"))
	}
}
