// Package extractor turns fetched content into canonical observations.
//
// Each format has its own pure extractor taking the body and target and
// returning a models.Observation. Extract dispatches on the classified
// format and runs the fallback chains explicitly:
//
//	atom feed -> generic XML -> raw XML prefix
//	JSON      -> normalized raw text
package extractor

import (
	"unicode/utf8"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/keyword"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/rs/zerolog"
)

// Fallback names the fallback taken while extracting, if any.
type Fallback string

const (
	FallbackNone           Fallback = ""
	FallbackNotAtomFeed    Fallback = "not_atom_feed"
	FallbackXMLUnparsable  Fallback = "xml_unparsable"
	FallbackJSONUnparsable Fallback = "json_unparsable"
)

// emptyMarker is shown instead of a preview when filtering left nothing.
const emptyMarker = "(no match / empty)"

// Input is one fetched document together with the target it belongs to.
type Input struct {
	Target      models.Target
	ContentType string
	Body        []byte
	// BaseURL resolves relative links; defaults to the target URL.
	BaseURL string
}

func (in Input) baseURL() string {
	if in.BaseURL != "" {
		return in.BaseURL
	}
	return in.Target.URL
}

// Result is the outcome of a successful extraction.
type Result struct {
	Format      Format
	Fallback    Fallback
	Observation models.Observation
	Fingerprint string
}

// Extractor dispatches documents to the format extractors.
type Extractor struct {
	opts   Options
	logger zerolog.Logger
}

// NewExtractor creates an Extractor; zero option fields take their defaults.
func NewExtractor(opts Options, logger zerolog.Logger) *Extractor {
	return &Extractor{
		opts:   opts.withDefaults(),
		logger: logger.With().Str("component", "Extractor").Logger(),
	}
}

// Options returns the effective options.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract classifies the document and produces its observation and
// fingerprint. It fails with a *common.ParseError only for content no
// extractor can handle, such as binary bodies or invalid HTML selectors.
func (e *Extractor) Extract(in Input) (*Result, error) {
	spec := keyword.Parse(in.Target.Keyword)
	format := Classify(in.Target.URL, in.ContentType, in.Target.Selector)

	// XML declares its own encoding in the prolog; JSON degrades to raw text.
	if !format.IsXML() && format != FormatJSON && !utf8.Valid(in.Body) {
		return nil, common.NewParseError("body", "content is not valid UTF-8 text", nil)
	}

	var (
		result Result
		err    error
	)
	switch format {
	case FormatJSON:
		result, err = e.extractJSON(in, spec)
	case FormatAtomFeed, FormatGenericXML:
		result, err = e.extractXMLFamily(in, spec)
	default:
		result.Format = FormatHTML
		result.Observation, err = ExtractHTML(in.Body, in.baseURL(), in.Target.Selector, spec, e.opts)
	}
	if err != nil {
		return nil, err
	}

	result.Fingerprint = fingerprint.Of(result.Observation.HashSource)

	e.logger.Debug().
		Str("target_id", in.Target.ID).
		Str("format", result.Format.String()).
		Str("fallback", string(result.Fallback)).
		Str("fingerprint", result.Fingerprint).
		Msg("Extracted observation")
	return &result, nil
}

// extractXMLFamily parses once and tries the atom extractor before generic XML.
func (e *Extractor) extractXMLFamily(in Input, spec keyword.Spec) (Result, error) {
	doc, err := parseXML(in.Body)
	if err != nil {
		return Result{
			Format:      FormatGenericXML,
			Fallback:    FallbackXMLUnparsable,
			Observation: rawXMLObservation(in.Body, spec, e.opts),
		}, nil
	}

	obs, err := atomFromDocument(doc, in.baseURL(), spec, e.opts)
	if err == nil {
		return Result{Format: FormatAtomFeed, Observation: obs}, nil
	}

	return Result{
		Format:      FormatGenericXML,
		Fallback:    FallbackNotAtomFeed,
		Observation: genericFromDocument(doc, spec, e.opts),
	}, nil
}

func (e *Extractor) extractJSON(in Input, spec keyword.Spec) (Result, error) {
	obs, fellBack := ExtractJSON(in.Body, in.Target.Selector, spec, e.opts)
	result := Result{Format: FormatJSON, Observation: obs}
	if fellBack {
		result.Fallback = FallbackJSONUnparsable
	}
	return result, nil
}

// newObservation bounds the preview and detail lines in one place.
func newObservation(hashSource, preview string, detail []string) models.Observation {
	return models.Observation{
		HashSource:  hashSource,
		Preview:     fingerprint.Preview(preview),
		DetailLines: fingerprint.CapLines(detail, fingerprint.MaxDetailLines),
	}
}

// blobObservation builds the observation shared by the text-blob paths:
// filtered-out text becomes empty and the preview shows the empty marker.
func blobObservation(text string, spec keyword.Spec) models.Observation {
	if !spec.Match(text) {
		text = ""
	}
	if text == "" {
		return newObservation("", emptyMarker, []string{emptyMarker})
	}
	return newObservation(text, text, splitNonEmptyLines(text))
}
