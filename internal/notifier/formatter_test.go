package notifier

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/stretchr/testify/assert"
)

var booksTarget = models.Target{ID: "books", Name: "Books", URL: "https://example.com/books"}

func TestFormatEvent_Changed(t *testing.T) {
	ev := models.ChangeEvent{
		Target:        booksTarget,
		Kind:          models.OutcomeChanged,
		BeforePreview: "Old title",
		AfterPreview:  "New title",
		DetailLines:   []string{"title: New title"},
	}

	msg := FormatEvent(ev, []string{"- title: Old title", "+ title: New title"})

	assert.Equal(t, strings.Join([]string{
		"🔔 **Books** changed",
		"https://example.com/books",
		"Before: Old title",
		"After: New title",
		"",
		"Diff:",
		"- title: Old title",
		"+ title: New title",
	}, "\n"), msg)
}

func TestFormatEvent_ChangedWithoutDiffShowsDetail(t *testing.T) {
	ev := models.ChangeEvent{
		Target:       booksTarget,
		Kind:         models.OutcomeChanged,
		AfterPreview: "",
		DetailLines:  []string{"(none)"},
	}

	msg := FormatEvent(ev, nil)

	assert.Contains(t, msg, "Before: (empty)\nAfter: (empty)\n\n(none)")
}

func TestFormatEvent_FirstSeenCapsDetail(t *testing.T) {
	var detail []string
	for i := 0; i < 45; i++ {
		detail = append(detail, fmt.Sprintf("line %d", i))
	}
	ev := models.ChangeEvent{
		Target:       models.Target{ID: "feed", URL: "https://example.com/feed.xml"},
		Kind:         models.OutcomeFirstSeen,
		AfterPreview: "Storm Warning",
		DetailLines:  detail,
	}

	msg := FormatEvent(ev, nil)

	assert.True(t, strings.HasPrefix(msg, "🆕 **feed** is now monitored\nhttps://example.com/feed.xml\nPreview: Storm Warning\n"))
	assert.Contains(t, msg, "line 39\n… and 5 more line(s)")
	assert.NotContains(t, msg, "line 40")
}

func TestFormatEvent_Failures(t *testing.T) {
	fetchFailed := FormatEvent(models.ChangeEvent{
		Target: booksTarget,
		Kind:   models.OutcomeFetchFailed,
		Error:  "transport error for 'https://example.com/books': HTTP 503",
	}, nil)
	parseFailed := FormatEvent(models.ChangeEvent{
		Target: booksTarget,
		Kind:   models.OutcomeParseFailed,
		Error:  "parse error (html): invalid selector",
	}, nil)

	assert.Equal(t, "⚠️ **Books** could not be fetched\nhttps://example.com/books\nError: transport error for 'https://example.com/books': HTTP 503", fetchFailed)
	assert.Equal(t, "⚠️ **Books** could not be parsed\nhttps://example.com/books\nError: parse error (html): invalid selector", parseFailed)
}

func TestFormatCycleHeader(t *testing.T) {
	assert.Equal(t, "🚨 PageMonitor: 2 update(s) detected", FormatCycleHeader(2, nil))
	assert.Equal(t, "<@&1> <@&2>\n🚨 PageMonitor: 1 update(s) detected", FormatCycleHeader(1, []string{"1", "2"}))
}
