package extractor

// Options carries the limits and heuristics used by the extractors. The
// zero value of any field means "use the default".
type Options struct {
	MaxAtomItems int
	MaxHTMLLinks int
	MaxJSONItems int

	// XMLElementScanLimit bounds how many elements the generic XML walk visits.
	XMLElementScanLimit int
	// XMLTextLimit bounds how many text strings the generic XML walk keeps.
	XMLTextLimit int
	// XMLRawFallbackChars is the raw-text prefix used for unparsable XML.
	XMLRawFallbackChars int

	// JSONProbeKeys are tried in order to locate the observed list.
	JSONProbeKeys []string
	// JSONPreferredKeys select which record fields are flattened.
	JSONPreferredKeys []string
	// JSONFallbackKeyCount is how many leading keys are used when no preferred key is present.
	JSONFallbackKeyCount int
}

const (
	DefaultMaxAtomItems         = 5
	DefaultMaxHTMLLinks         = 8
	DefaultMaxJSONItems         = 10
	DefaultXMLElementScanLimit  = 300
	DefaultXMLTextLimit         = 50
	DefaultXMLRawFallbackChars  = 5000
	DefaultJSONFallbackKeyCount = 5
)

var (
	DefaultJSONProbeKeys     = []string{"items", "results", "data", "entries", "records"}
	DefaultJSONPreferredKeys = []string{"id", "title", "name", "date", "updated", "url", "link"}
)

// DefaultOptions returns the default extraction limits.
func DefaultOptions() Options {
	return Options{
		MaxAtomItems:         DefaultMaxAtomItems,
		MaxHTMLLinks:         DefaultMaxHTMLLinks,
		MaxJSONItems:         DefaultMaxJSONItems,
		XMLElementScanLimit:  DefaultXMLElementScanLimit,
		XMLTextLimit:         DefaultXMLTextLimit,
		XMLRawFallbackChars:  DefaultXMLRawFallbackChars,
		JSONProbeKeys:        append([]string(nil), DefaultJSONProbeKeys...),
		JSONPreferredKeys:    append([]string(nil), DefaultJSONPreferredKeys...),
		JSONFallbackKeyCount: DefaultJSONFallbackKeyCount,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxAtomItems <= 0 {
		o.MaxAtomItems = d.MaxAtomItems
	}
	if o.MaxHTMLLinks <= 0 {
		o.MaxHTMLLinks = d.MaxHTMLLinks
	}
	if o.MaxJSONItems <= 0 {
		o.MaxJSONItems = d.MaxJSONItems
	}
	if o.XMLElementScanLimit <= 0 {
		o.XMLElementScanLimit = d.XMLElementScanLimit
	}
	if o.XMLTextLimit <= 0 {
		o.XMLTextLimit = d.XMLTextLimit
	}
	if o.XMLRawFallbackChars <= 0 {
		o.XMLRawFallbackChars = d.XMLRawFallbackChars
	}
	if len(o.JSONProbeKeys) == 0 {
		o.JSONProbeKeys = d.JSONProbeKeys
	}
	if len(o.JSONPreferredKeys) == 0 {
		o.JSONPreferredKeys = d.JSONPreferredKeys
	}
	if o.JSONFallbackKeyCount <= 0 {
		o.JSONFallbackKeyCount = d.JSONFallbackKeyCount
	}
	return o
}

// scalarListLimit is how many plain values of a JSON list are observed.
func (o Options) scalarListLimit() int {
	return max(10, 2*o.MaxAtomItems)
}
