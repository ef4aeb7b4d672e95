package extractor

import (
	"strings"

	"github.com/aleister1102/pagemonitor/internal/urlhandler"
)

// Format is the closed set of content kinds an observation can be extracted from.
type Format int

const (
	FormatHTML Format = iota
	FormatAtomFeed
	FormatGenericXML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatAtomFeed:
		return "atom"
	case FormatGenericXML:
		return "xml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// IsXML reports whether the format belongs to the XML family.
func (f Format) IsXML() bool {
	return f == FormatAtomFeed || f == FormatGenericXML
}

const jsonSelectorMarker = "json"

// Classify picks the format for a fetched document. JSON wins when the
// content type says so, the selector carries the json marker, or the URL ends
// in .json. The XML family follows (.xml suffix or an xml content type) and
// starts at FormatAtomFeed; whether it really is a feed is decided during
// extraction. Everything else is HTML.
func Classify(targetURL, contentType, selector string) Format {
	contentType = strings.ToLower(contentType)

	if strings.Contains(contentType, "json") || IsJSONSelector(selector) || urlhandler.HasSuffixFold(targetURL, ".json") {
		return FormatJSON
	}
	if urlhandler.HasSuffixFold(targetURL, ".xml") || strings.Contains(contentType, "xml") {
		return FormatAtomFeed
	}
	return FormatHTML
}

// JSONSelector is the parsed form of "json:<list_key>[:<field>,<field>...]".
type JSONSelector struct {
	ListKey string
	Fields  []string
}

// IsJSONSelector reports whether selector carries the json marker.
func IsJSONSelector(selector string) bool {
	_, ok := ParseJSONSelector(selector)
	return ok
}

// ParseJSONSelector parses "json", "json:items" or "json:items:id,title".
// The list key may be empty ("json::id,title") and is a gjson path.
func ParseJSONSelector(selector string) (JSONSelector, bool) {
	selector = strings.TrimSpace(selector)
	if !strings.EqualFold(selector, jsonSelectorMarker) &&
		!(len(selector) > len(jsonSelectorMarker) && strings.EqualFold(selector[:len(jsonSelectorMarker)+1], jsonSelectorMarker+":")) {
		return JSONSelector{}, false
	}

	var sel JSONSelector
	rest := ""
	if len(selector) > len(jsonSelectorMarker) {
		rest = selector[len(jsonSelectorMarker)+1:]
	}

	listKey, fields, _ := strings.Cut(rest, ":")
	sel.ListKey = strings.TrimSpace(listKey)
	for _, field := range strings.Split(fields, ",") {
		if field = strings.TrimSpace(field); field != "" {
			sel.Fields = append(sel.Fields, field)
		}
	}
	return sel, true
}
