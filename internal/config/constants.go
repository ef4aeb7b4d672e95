package config

const (
	// Monitor Defaults
	DefaultMonitorTargetsFile          = "targets.csv"
	DefaultMonitorCheckIntervalSeconds = 3600
	DefaultMonitorHTTPTimeoutSeconds   = 30
	DefaultMonitorRequestDelaySeconds  = 1.0
	DefaultMonitorMaxConcurrentChecks  = 5
	DefaultMonitorMaxContentSize       = 10 * 1024 * 1024
	DefaultMonitorUserAgent            = "PageMonitorBot/1.0"

	// Extractor Defaults
	DefaultExtractorMaxAtomItems         = 5
	DefaultExtractorMaxHTMLLinks         = 8
	DefaultExtractorMaxJSONItems         = 10
	DefaultExtractorXMLElementScanLimit  = 300
	DefaultExtractorXMLTextLimit         = 50
	DefaultExtractorXMLRawFallbackChars  = 5000
	DefaultExtractorJSONFallbackKeyCount = 5

	// Notification Defaults
	DefaultNotificationChunkSize = 1800
	DefaultNotificationUsername  = "PageMonitor"

	// Storage Defaults
	DefaultStorageSnapshotDBPath   = "database/snapshots.db"
	DefaultStorageArchiveDir       = "database/changes"
	DefaultStorageCompressionCodec = "zstd"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// ConfigPathEnvVar points at the config file when no flag is given.
	ConfigPathEnvVar = "PAGEMONITOR_CONFIG_PATH"
)

var (
	DefaultExtractorJSONProbeKeys     = []string{"items", "results", "data", "entries", "records"}
	DefaultExtractorJSONPreferredKeys = []string{"id", "title", "name", "date", "updated", "url", "link"}
)
