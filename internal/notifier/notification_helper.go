package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/config"
	"github.com/aleister1102/pagemonitor/internal/differ"
	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/rs/zerolog"
)

// NewFromConfig returns a DiscordNotifier when a webhook is configured and a
// LogNotifier otherwise.
func NewFromConfig(cfg config.NotificationConfig, httpClient *http.Client, logger zerolog.Logger) (Notifier, error) {
	if cfg.DiscordWebhookURL == "" {
		logger.Info().Msg("No Discord webhook configured, change messages will be logged")
		return NewLogNotifier(logger), nil
	}
	return NewDiscordNotifier(cfg.DiscordWebhookURL, DiscordOptions{
		Username:       cfg.Username,
		SuppressEmbeds: cfg.SuppressLinkPreviews,
	}, httpClient, logger)
}

// DispatchResult summarizes one Dispatch call.
type DispatchResult struct {
	Events int // events that passed the notification policy
	Chunks int // chunks handed to the notifier
	Sent   int // chunks delivered without error
}

// NotificationHelper applies the notification policy to a cycle's events,
// formats them and hands the chunks to a Notifier in order.
type NotificationHelper struct {
	notifier Notifier
	cfg      config.NotificationConfig
	diff     *differ.DiffProcessor
	logger   zerolog.Logger
}

// NewNotificationHelper creates a new NotificationHelper.
func NewNotificationHelper(n Notifier, cfg config.NotificationConfig, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		notifier: n,
		cfg:      cfg,
		diff:     differ.NewDiffProcessor(),
		logger:   logger.With().Str("module", "NotificationHelper").Logger(),
	}
}

// ShouldNotify reports whether ev is announced under the configured policy.
// Changes are always announced.
func (nh *NotificationHelper) ShouldNotify(ev models.ChangeEvent) bool {
	switch ev.Kind {
	case models.OutcomeChanged:
		return true
	case models.OutcomeFirstSeen:
		return nh.cfg.NotifyOnFirstSeen
	case models.OutcomeFetchFailed, models.OutcomeParseFailed:
		return nh.cfg.NotifyOnFailure
	default:
		return false
	}
}

// BuildMessages formats the announced events, preceded by a cycle header.
// It returns nil when nothing is announced.
func (nh *NotificationHelper) BuildMessages(events []models.ChangeEvent) []string {
	var bodies []string
	for _, ev := range events {
		if !nh.ShouldNotify(ev) {
			continue
		}
		bodies = append(bodies, FormatEvent(ev, nh.diffLines(ev)))
	}
	if len(bodies) == 0 {
		return nil
	}
	return append([]string{FormatCycleHeader(len(bodies), nh.cfg.MentionRoleIDs)}, bodies...)
}

// Dispatch sends the cycle's messages. The notifier is not called at all when
// no event is announced. A failed chunk does not stop the following ones.
func (nh *NotificationHelper) Dispatch(ctx context.Context, events []models.ChangeEvent) (DispatchResult, error) {
	var result DispatchResult

	messages := nh.BuildMessages(events)
	if len(messages) == 0 {
		nh.logger.Debug().Int("events", len(events)).Msg("No changes. Skip notify.")
		return result, nil
	}
	result.Events = len(messages) - 1

	chunks := Chunk(messages, nh.cfg.ChunkSize)
	result.Chunks = len(chunks)

	var errs []error
	for i, chunk := range chunks {
		if err := nh.notifier.Notify(ctx, chunk); err != nil {
			errs = append(errs, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		result.Sent++
	}

	nh.logger.Info().Int("events", result.Events).Int("chunks", result.Chunks).Int("sent", result.Sent).Msg("Change notifications dispatched")
	return result, common.CombineErrors(errs)
}

func (nh *NotificationHelper) diffLines(ev models.ChangeEvent) []string {
	if ev.Kind != models.OutcomeChanged || len(ev.BeforeDetail) == 0 || len(ev.DetailLines) == 0 {
		return nil
	}
	return differ.Render(nh.diff.LineDiff(ev.BeforeDetail, ev.DetailLines), MaxDiffLines)
}
