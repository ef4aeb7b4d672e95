package config

// ExtractorConfig defines the limits and heuristics used to build observations
type ExtractorConfig struct {
	MaxAtomItems         int      `json:"max_atom_items,omitempty" yaml:"max_atom_items,omitempty" validate:"min=1"`
	MaxHTMLLinks         int      `json:"max_html_links,omitempty" yaml:"max_html_links,omitempty" validate:"min=1"`
	MaxJSONItems         int      `json:"max_json_items,omitempty" yaml:"max_json_items,omitempty" validate:"min=1"`
	XMLElementScanLimit  int      `json:"xml_element_scan_limit,omitempty" yaml:"xml_element_scan_limit,omitempty" validate:"min=1"`
	XMLTextLimit         int      `json:"xml_text_limit,omitempty" yaml:"xml_text_limit,omitempty" validate:"min=1"`
	XMLRawFallbackChars  int      `json:"xml_raw_fallback_chars,omitempty" yaml:"xml_raw_fallback_chars,omitempty" validate:"min=1"`
	JSONProbeKeys        []string `json:"json_probe_keys,omitempty" yaml:"json_probe_keys,omitempty" validate:"dive,required"`
	JSONPreferredKeys    []string `json:"json_preferred_keys,omitempty" yaml:"json_preferred_keys,omitempty" validate:"dive,required"`
	JSONFallbackKeyCount int      `json:"json_fallback_key_count,omitempty" yaml:"json_fallback_key_count,omitempty" validate:"min=1"`
}

// NewDefaultExtractorConfig creates default extractor configuration
func NewDefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxAtomItems:         DefaultExtractorMaxAtomItems,
		MaxHTMLLinks:         DefaultExtractorMaxHTMLLinks,
		MaxJSONItems:         DefaultExtractorMaxJSONItems,
		XMLElementScanLimit:  DefaultExtractorXMLElementScanLimit,
		XMLTextLimit:         DefaultExtractorXMLTextLimit,
		XMLRawFallbackChars:  DefaultExtractorXMLRawFallbackChars,
		JSONProbeKeys:        append([]string(nil), DefaultExtractorJSONProbeKeys...),
		JSONPreferredKeys:    append([]string(nil), DefaultExtractorJSONPreferredKeys...),
		JSONFallbackKeyCount: DefaultExtractorJSONFallbackKeyCount,
	}
}
