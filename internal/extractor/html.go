package extractor

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/keyword"
	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/aleister1102/pagemonitor/internal/urlhandler"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

const (
	noneMarker        = "(none)"
	minAnchorTextRune = 2
)

// HTMLLink is one anchor kept by the link extractor.
type HTMLLink struct {
	Text string
	URL  string
}

// ExtractHTML builds the observation for an HTML page. With a selector, the
// normalized text of the first matching element is observed; a missing
// element observes the empty string. Without a selector, the page title and
// the first anchors of <main> (or <body>, or the whole document) are observed.
// An invalid selector is a *common.ParseError.
func ExtractHTML(body []byte, pageURL, selector string, spec keyword.Spec, opts Options) (models.Observation, error) {
	opts = opts.withDefaults()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Observation{}, common.NewParseError("html", "failed to parse document", err)
	}

	if strings.TrimSpace(selector) != "" {
		return selectedTextObservation(doc, selector, spec)
	}
	return linksObservation(doc, pageURL, spec, opts.MaxHTMLLinks), nil
}

func selectedTextObservation(doc *goquery.Document, selector string, spec keyword.Spec) (models.Observation, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return models.Observation{}, common.NewParseError("html", "invalid selector "+selector, err)
	}

	text := ""
	if selection := doc.FindMatcher(matcher).First(); selection.Length() > 0 {
		text = fingerprint.NormalizeSpace(selection.Text())
	}
	if !spec.Match(text) {
		text = ""
	}

	line := text
	if line == "" {
		line = emptyMarker
	}
	return newObservation(text, line, []string{line}), nil
}

func linksObservation(doc *goquery.Document, pageURL string, spec keyword.Spec, limit int) models.Observation {
	title := fingerprint.NormalizeSpace(doc.Find("title").First().Text())
	links := collectLinks(linkContainer(doc), pageURL, spec, limit)

	hashLines := make([]string, 0, len(links)+1)
	hashLines = append(hashLines, title)
	detail := make([]string, 0, 2*len(links)+1)
	detail = append(detail, "title: "+title)
	for _, link := range links {
		hashLines = append(hashLines, link.Text+"|"+link.URL)
		detail = append(detail, "• "+link.Text, "    "+link.URL)
	}
	if len(links) == 0 {
		detail = append(detail, noneMarker)
	}

	preview := title
	if preview == "" && len(links) > 0 {
		preview = links[0].Text
	}
	return newObservation(strings.Join(hashLines, "\n"), preview, detail)
}

// linkContainer prefers <main>, then <body>, then the whole document.
func linkContainer(doc *goquery.Document) *goquery.Selection {
	for _, tag := range []string{"main", "body"} {
		if selection := doc.Find(tag).First(); selection.Length() > 0 {
			return selection
		}
	}
	return doc.Selection
}

func collectLinks(container *goquery.Selection, pageURL string, spec keyword.Spec, limit int) []HTMLLink {
	base := urlhandler.ParseBase(pageURL)
	links := make([]HTMLLink, 0, limit)

	container.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := fingerprint.NormalizeSpace(s.Text())
		if utf8.RuneCountInString(text) < minAnchorTextRune {
			return true
		}

		href := strings.TrimSpace(s.AttrOr("href", ""))
		if skipHref(href) {
			return true
		}

		link := HTMLLink{Text: text, URL: urlhandler.ResolveOrRaw(href, base)}
		if !spec.Match(link.Text + " " + link.URL) {
			return true
		}

		links = append(links, link)
		return len(links) < limit
	})
	return links
}

// skipHref drops empty hrefs, in-page fragments and script pseudo-URLs.
func skipHref(href string) bool {
	return href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(strings.ToLower(href), "javascript:")
}
