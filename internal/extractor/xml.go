package extractor

import (
	"bytes"
	"strings"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/keyword"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/antchfx/xmlquery"
)

// parseXML parses body into a node tree. A document without any element
// is reported as unparsable.
func parseXML(body []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, common.NewParseError("xml", "malformed document", err)
	}
	if rootElement(doc) == nil {
		return nil, common.NewParseError("xml", "document has no root element", nil)
	}
	return doc, nil
}

// rootElement returns the first element in document order.
func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	var found *xmlquery.Node
	walkElements(doc, func(n *xmlquery.Node) bool {
		found = n
		return false
	})
	return found
}

// walkElements visits element nodes in document order until visit returns false.
func walkElements(n *xmlquery.Node, visit func(*xmlquery.Node) bool) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && !visit(child) {
			return false
		}
		if !walkElements(child, visit) {
			return false
		}
	}
	return true
}

// directText returns the text and CDATA leading an element, up to its first
// child element. Text following a child element belongs to that child's tail
// and is not observed.
func directText(n *xmlquery.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			break
		}
		if child.Type == xmlquery.TextNode || child.Type == xmlquery.CharDataNode {
			b.WriteString(child.Data)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// ExtractGenericXML builds the observation for XML that is not an Atom feed.
// Unparsable documents fall back to a prefix of the raw text; the second
// return value reports that fallback.
func ExtractGenericXML(body []byte, spec keyword.Spec, opts Options) (models.Observation, bool) {
	opts = opts.withDefaults()
	doc, err := parseXML(body)
	if err != nil {
		return rawXMLObservation(body, spec, opts), true
	}
	return genericFromDocument(doc, spec, opts), false
}

func genericFromDocument(doc *xmlquery.Node, spec keyword.Spec, opts Options) models.Observation {
	texts := make([]string, 0, opts.XMLTextLimit)
	visited := 0

	walkElements(doc, func(n *xmlquery.Node) bool {
		visited++
		if text := fingerprint.NormalizeSpace(directText(n)); text != "" {
			texts = append(texts, text)
		}
		return visited < opts.XMLElementScanLimit && len(texts) < opts.XMLTextLimit
	})

	return blobObservation(strings.Join(texts, "\n"), spec)
}

func rawXMLObservation(body []byte, spec keyword.Spec, opts Options) models.Observation {
	raw := fingerprint.NormalizeSpace(fingerprint.BoundedPreview(string(body), opts.XMLRawFallbackChars))
	return blobObservation(raw, spec)
}

func splitNonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
