package extractor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aleister1102/pagemonitor/internal/keyword"

	"github.com/stretchr/testify/assert"
)

func TestExtractGenericXML(t *testing.T) {
	body := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>  Station
      news </title>
    <item><title>Rain expected</title><description><![CDATA[Heavy rain]]></description></item>
    <item><title>Sunny day</title></item>
  </channel>
</rss>`

	obs, fellBack := ExtractGenericXML([]byte(body), keyword.Spec{}, DefaultOptions())
	assert.False(t, fellBack)
	assert.Equal(t, "Station news\nRain expected\nHeavy rain\nSunny day", obs.HashSource)
	assert.Equal(t, []string{"Station news", "Rain expected", "Heavy rain", "Sunny day"}, obs.DetailLines)
}

func TestExtractGenericXML_KeywordAppliesToWholeText(t *testing.T) {
	body := `<root><a>Rain expected</a><b>Sunny day</b></root>`

	obs, _ := ExtractGenericXML([]byte(body), keyword.Parse("rain"), DefaultOptions())
	assert.Equal(t, "Rain expected\nSunny day", obs.HashSource)

	obs, _ = ExtractGenericXML([]byte(body), keyword.Parse("rain|!sunny"), DefaultOptions())
	assert.Equal(t, "", obs.HashSource)
	assert.Equal(t, emptyMarker, obs.Preview)
	assert.Equal(t, []string{emptyMarker}, obs.DetailLines)
}

func TestExtractGenericXML_TextLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("<root>")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&b, "<v>value %d</v>", i)
	}
	b.WriteString("</root>")

	obs, _ := ExtractGenericXML([]byte(b.String()), keyword.Spec{}, Options{XMLTextLimit: 3})
	assert.Equal(t, "value 0\nvalue 1\nvalue 2", obs.HashSource)
}

func TestExtractGenericXML_ElementScanLimit(t *testing.T) {
	body := `<root><a>one</a><b>two</b><c>three</c></root>`

	// root and <a> are visited; <a> is the last element scanned.
	obs, _ := ExtractGenericXML([]byte(body), keyword.Spec{}, Options{XMLElementScanLimit: 2})
	assert.Equal(t, "one", obs.HashSource)
}

func TestExtractGenericXML_UnparsableFallsBackToRawPrefix(t *testing.T) {
	body := "  <root><unclosed>" + strings.Repeat("x", 20) + "  "

	obs, fellBack := ExtractGenericXML([]byte(body), keyword.Spec{}, Options{XMLRawFallbackChars: 12})
	assert.True(t, fellBack)
	assert.Equal(t, "<root><unc", obs.HashSource)
}

func TestExtractGenericXML_RawFallbackNormalizesWhitespace(t *testing.T) {
	spaced, fellBack := ExtractGenericXML([]byte("  a\n\tb  "), keyword.Spec{}, DefaultOptions())
	assert.True(t, fellBack)
	plain, _ := ExtractGenericXML([]byte("a b"), keyword.Spec{}, DefaultOptions())

	assert.Equal(t, "a b", spaced.HashSource)
	assert.Equal(t, plain, spaced)
}

func TestExtractGenericXML_TailTextStaysWithChild(t *testing.T) {
	body := `<root><title>I <b>bold</b> tail</title><note>end</note></root>`

	obs, fellBack := ExtractGenericXML([]byte(body), keyword.Spec{}, DefaultOptions())
	assert.False(t, fellBack)
	assert.Equal(t, "I\nbold\nend", obs.HashSource)
}
