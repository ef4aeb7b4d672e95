// Package notifier formats change events into chat messages and delivers them.
package notifier

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier delivers one already formatted, already chunked message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// LogNotifier writes messages to the log. It is used when no webhook is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("module", "LogNotifier").Logger()}
}

func (ln *LogNotifier) Notify(_ context.Context, message string) error {
	ln.logger.Info().Msg(message)
	return nil
}
