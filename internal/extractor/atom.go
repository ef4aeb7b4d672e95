package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/keyword"
	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/aleister1102/pagemonitor/internal/urlhandler"

	"github.com/antchfx/xmlquery"
)

// AtomEntry holds the fields of one feed entry that take part in the observation.
type AtomEntry struct {
	ID      string
	Title   string
	Updated string
	Link    string
}

// hashLine is the entry's contribution to the hash source. All four fields
// participate so a change to any of them is detected.
func (e AtomEntry) hashLine() string {
	return strings.Join([]string{e.ID, e.Updated, e.Title, e.Link}, "|")
}

// ExtractAtom builds the observation for an Atom feed. It returns an error
// matching common.ErrNotAtomFeed when the document is not a feed, so the
// caller can fall back to generic XML.
func ExtractAtom(body []byte, feedURL string, spec keyword.Spec, opts Options) (models.Observation, error) {
	opts = opts.withDefaults()
	doc, err := parseXML(body)
	if err != nil {
		return models.Observation{}, fmt.Errorf("%w: %w", common.ErrNotAtomFeed, err)
	}
	return atomFromDocument(doc, feedURL, spec, opts)
}

func atomFromDocument(doc *xmlquery.Node, feedURL string, spec keyword.Spec, opts Options) (models.Observation, error) {
	root := rootElement(doc)
	if root == nil || root.Data != "feed" {
		name := ""
		if root != nil {
			name = root.Data
		}
		return models.Observation{}, fmt.Errorf("%w: root element is %q", common.ErrNotAtomFeed, name)
	}

	entries := collectAtomEntries(root, urlhandler.ParseBase(feedURL), spec, opts.MaxAtomItems)

	hashLines := make([]string, 0, len(entries))
	titles := make([]string, 0, len(entries))
	detail := make([]string, 0, 3*len(entries))
	for _, entry := range entries {
		hashLines = append(hashLines, entry.hashLine())
		titles = append(titles, entry.Title)
		detail = append(detail,
			fmt.Sprintf("- %s (%s)", entry.Title, entry.Updated),
			"  "+entry.Link,
			"",
		)
	}

	preview := strings.Join(titles, " / ")
	if len(entries) == 0 {
		preview = emptyMarker
		detail = []string{emptyMarker}
	}
	return newObservation(strings.Join(hashLines, "\n"), preview, detail), nil
}

// collectAtomEntries keeps matching entries in document order, up to limit.
func collectAtomEntries(root *xmlquery.Node, base *url.URL, spec keyword.Spec, limit int) []AtomEntry {
	var entries []AtomEntry
	walkElements(root, func(n *xmlquery.Node) bool {
		if n.Data != "entry" {
			return true
		}
		entry := readAtomEntry(n, base)
		if spec.Match(entry.Title + " " + entry.Link) {
			entries = append(entries, entry)
		}
		return len(entries) < limit
	})
	return entries
}

// readAtomEntry reads the direct children of an entry; the last occurrence of a tag wins.
func readAtomEntry(n *xmlquery.Node, base *url.URL) AtomEntry {
	var entry AtomEntry
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		switch child.Data {
		case "title":
			entry.Title = fingerprint.NormalizeSpace(child.InnerText())
		case "updated":
			entry.Updated = fingerprint.NormalizeSpace(child.InnerText())
		case "id":
			entry.ID = fingerprint.NormalizeSpace(child.InnerText())
		case "link":
			entry.Link = resolveHref(attrValue(child, "href"), base)
		}
	}
	return entry
}

func attrValue(n *xmlquery.Node, local string) string {
	for _, attr := range n.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// resolveHref makes href absolute against base, keeping it as-is when it cannot be resolved.
func resolveHref(href string, base *url.URL) string {
	if strings.TrimSpace(href) == "" {
		return ""
	}
	return urlhandler.ResolveOrRaw(href, base)
}
