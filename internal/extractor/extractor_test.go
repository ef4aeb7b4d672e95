package extractor

import (
	"testing"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Extractor {
	return NewExtractor(Options{}, zerolog.Nop())
}

func TestExtract_Dispatch(t *testing.T) {
	tests := []struct {
		name       string
		input      Input
		format     Format
		fallback   Fallback
		hashSource string
	}{
		{
			name: "html selector",
			input: Input{
				Target:      models.Target{ID: "h", URL: "https://example.com/", Selector: "h1"},
				ContentType: "text/html; charset=utf-8",
				Body:        []byte("<h1> Hello  world </h1>"),
			},
			format:     FormatHTML,
			hashSource: "Hello world",
		},
		{
			name: "atom feed",
			input: Input{
				Target:      models.Target{ID: "a", URL: "https://example.com/feed.xml"},
				ContentType: "application/atom+xml",
				Body:        []byte(atomFeed(atomEntry("urn:1", "One", "2024", "/1"))),
			},
			format:     FormatAtomFeed,
			hashSource: "urn:1|2024|One|https://example.com/1",
		},
		{
			name: "rss falls back to generic xml",
			input: Input{
				Target: models.Target{ID: "r", URL: "https://example.com/rss.xml"},
				Body:   []byte("<rss><channel><title>News</title></channel></rss>"),
			},
			format:     FormatGenericXML,
			fallback:   FallbackNotAtomFeed,
			hashSource: "News",
		},
		{
			name: "broken xml falls back to raw text",
			input: Input{
				Target:      models.Target{ID: "b", URL: "https://example.com/broken"},
				ContentType: "text/xml",
				Body:        []byte("<feed><entry>"),
			},
			format:     FormatGenericXML,
			fallback:   FallbackXMLUnparsable,
			hashSource: "<feed><entry>",
		},
		{
			name: "json records",
			input: Input{
				Target:      models.Target{ID: "j", URL: "https://example.com/api"},
				ContentType: "application/json",
				Body:        []byte(`{"items":[{"id":"1","title":"X"}]}`),
			},
			format:     FormatJSON,
			hashSource: "id=1 title=X",
		},
		{
			name: "invalid json falls back to raw text",
			input: Input{
				Target: models.Target{ID: "k", URL: "https://example.com/data.json"},
				Body:   []byte("{oops"),
			},
			format:     FormatJSON,
			fallback:   FallbackJSONUnparsable,
			hashSource: "{oops",
		},
	}

	extractor := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := extractor.Extract(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.format, result.Format)
			assert.Equal(t, tt.fallback, result.Fallback)
			assert.Equal(t, tt.hashSource, result.Observation.HashSource)
			assert.Equal(t, fingerprint.Of(tt.hashSource), result.Fingerprint)
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	inputs := []Input{
		{Target: models.Target{URL: "https://example.com/"}, Body: []byte(linksPage)},
		{Target: models.Target{URL: feedURL}, Body: []byte(atomFeed(atomEntry("urn:1", "One", "2024", "/1")))},
		{Target: models.Target{URL: "https://example.com/x.xml"}, Body: []byte("<root><a>1</a></root>")},
		{Target: models.Target{URL: "https://example.com/x.json"}, Body: []byte(`[{"id":1},{"id":2}]`)},
	}

	extractor := newTestExtractor()
	for _, in := range inputs {
		first, err := extractor.Extract(in)
		require.NoError(t, err)
		second, err := extractor.Extract(in)
		require.NoError(t, err)
		assert.Equal(t, first.Fingerprint, second.Fingerprint, in.Target.URL)
	}
}

func TestExtract_BaseURLOverride(t *testing.T) {
	in := Input{
		Target:  models.Target{URL: "https://example.com/start"},
		Body:    []byte(`<body><a href="next">Next page</a></body>`),
		BaseURL: "https://example.com/final/",
	}

	result, err := newTestExtractor().Extract(in)
	require.NoError(t, err)
	assert.Equal(t, "\nNext page|https://example.com/final/next", result.Observation.HashSource)
}

func TestExtract_BinaryBodyIsParseError(t *testing.T) {
	_, err := newTestExtractor().Extract(Input{
		Target: models.Target{URL: "https://example.com/logo"},
		Body:   []byte{0xff, 0xfe, 0x00, 0x81},
	})
	require.Error(t, err)
	assert.True(t, common.IsParseError(err))
}

func TestExtract_NonUTF8JSONDegradesToRawText(t *testing.T) {
	result, err := newTestExtractor().Extract(Input{
		Target:      models.Target{ID: "j", URL: "https://example.com/x.json"},
		ContentType: "application/json",
		Body:        []byte("{\"a\":\"caf\xe9\""),
	})
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, result.Format)
	assert.Equal(t, FallbackJSONUnparsable, result.Fallback)
	assert.Equal(t, "{\"a\":\"caf\uFFFD\"", result.Observation.HashSource)
}

func TestExtract_InvalidSelectorIsParseError(t *testing.T) {
	_, err := newTestExtractor().Extract(Input{
		Target: models.Target{URL: "https://example.com/", Selector: "p:nth-child("},
		Body:   []byte("<p>x</p>"),
	})
	assert.True(t, common.IsParseError(err))
}

func TestNewExtractor_Defaults(t *testing.T) {
	opts := NewExtractor(Options{MaxAtomItems: 7}, zerolog.Nop()).Options()
	assert.Equal(t, 7, opts.MaxAtomItems)
	assert.Equal(t, DefaultMaxHTMLLinks, opts.MaxHTMLLinks)
	assert.Equal(t, DefaultJSONProbeKeys, opts.JSONProbeKeys)
	assert.Equal(t, 14, opts.scalarListLimit())
}
