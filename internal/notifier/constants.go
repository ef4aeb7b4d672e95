package notifier

const (
	// DefaultChunkSize keeps every delivered message under Discord's 2000 character limit.
	DefaultChunkSize = 1800
	// MaxDiffLines bounds the +/- lines rendered for one changed target.
	MaxDiffLines = 20
	// maxErrorBodyBytes bounds how much of a rejected webhook response is kept.
	maxErrorBodyBytes = 512

	messageSeparator = "\n\n"
	emptyPreview     = "(empty)"
)

// Message headers by event kind.
const (
	headerCycle       = "🚨 PageMonitor: %d update(s) detected"
	headerFirstSeen   = "🆕 **%s** is now monitored"
	headerChanged     = "🔔 **%s** changed"
	headerFetchFailed = "⚠️ **%s** could not be fetched"
	headerParseFailed = "⚠️ **%s** could not be parsed"
)
