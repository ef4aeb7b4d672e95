package notifier

import (
	"fmt"
	"strings"

	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/models"
)

// FormatEvent renders the message for one target. diffLines, when given, are
// the rendered "+ "/"- " lines between the previous and current detail.
func FormatEvent(ev models.ChangeEvent, diffLines []string) string {
	lines := []string{eventHeader(ev), ev.Target.URL}

	switch ev.Kind {
	case models.OutcomeChanged:
		lines = append(lines,
			"Before: "+previewOrEmpty(ev.BeforePreview),
			"After: "+previewOrEmpty(ev.AfterPreview),
		)
	case models.OutcomeFirstSeen:
		lines = append(lines, "Preview: "+previewOrEmpty(ev.AfterPreview))
	case models.OutcomeFetchFailed, models.OutcomeParseFailed:
		if ev.Error != "" {
			lines = append(lines, "Error: "+fingerprint.Preview(ev.Error))
		}
	}

	if len(diffLines) > 0 {
		lines = append(lines, "", "Diff:")
		lines = append(lines, diffLines...)
	} else if detail := formatDetail(ev.DetailLines); len(detail) > 0 {
		lines = append(lines, "")
		lines = append(lines, detail...)
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// FormatCycleHeader renders the line opening a batch of event messages,
// prefixed with the role mentions if any.
func FormatCycleHeader(eventCount int, mentionRoleIDs []string) string {
	header := fmt.Sprintf(headerCycle, eventCount)
	if mentions := buildMentions(mentionRoleIDs); mentions != "" {
		return mentions + "\n" + header
	}
	return header
}

func eventHeader(ev models.ChangeEvent) string {
	name := ev.Target.DisplayName()
	switch ev.Kind {
	case models.OutcomeFirstSeen:
		return fmt.Sprintf(headerFirstSeen, name)
	case models.OutcomeFetchFailed:
		return fmt.Sprintf(headerFetchFailed, name)
	case models.OutcomeParseFailed:
		return fmt.Sprintf(headerParseFailed, name)
	default:
		return fmt.Sprintf(headerChanged, name)
	}
}

// formatDetail caps the detail lines and notes how many were left out.
func formatDetail(detail []string) []string {
	shown := fingerprint.CapLines(detail, fingerprint.MaxDetailLines)
	out := append([]string(nil), shown...)
	if hidden := len(detail) - len(shown); hidden > 0 {
		out = append(out, fmt.Sprintf("… and %d more line(s)", hidden))
	}
	return out
}

func previewOrEmpty(preview string) string {
	if strings.TrimSpace(preview) == "" {
		return emptyPreview
	}
	return preview
}

func buildMentions(roleIDs []string) string {
	if len(roleIDs) == 0 {
		return ""
	}
	mentions := make([]string, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", roleID))
	}
	return strings.Join(mentions, " ")
}
