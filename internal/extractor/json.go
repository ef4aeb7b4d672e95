package extractor

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/keyword"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ExtractJSON builds the observation for a JSON document. A list of records
// is flattened into sorted key=value rows; a list of plain values and a
// payload without any list are observed as one filtered blob. Invalid JSON
// degrades to its normalized raw text, reported by the second return value.
// Bytes that are not UTF-8 are replaced with U+FFFD before parsing.
func ExtractJSON(body []byte, selector string, spec keyword.Spec, opts Options) (models.Observation, bool) {
	opts = opts.withDefaults()

	if !utf8.Valid(body) {
		body = []byte(strings.ToValidUTF8(string(body), string(utf8.RuneError)))
	}

	if !gjson.ValidBytes(body) {
		return blobObservation(fingerprint.NormalizeSpace(string(body)), spec), true
	}

	sel := jsonSelectorFor(selector)
	payload := gjson.ParseBytes(body)

	list, ok := locateList(payload, sel.ListKey, opts.JSONProbeKeys)
	if !ok {
		return blobObservation(canonicalJSON(payload.Raw), spec), false
	}

	elements := list.Array()
	if allRecords(elements) {
		return recordsObservation(elements, sel.Fields, spec, opts), false
	}
	return scalarsObservation(elements, spec, opts.scalarListLimit()), false
}

// jsonSelectorFor accepts both the marked form and a plain list key.
func jsonSelectorFor(selector string) JSONSelector {
	if sel, ok := ParseJSONSelector(selector); ok {
		return sel
	}
	return JSONSelector{ListKey: strings.TrimSpace(selector)}
}

// locateList finds the observed list: the explicit key first, then the probe
// keys as exact top-level names, then the payload itself.
func locateList(payload gjson.Result, listKey string, probeKeys []string) (gjson.Result, bool) {
	if listKey != "" {
		if candidate := payload.Get(listKey); candidate.IsArray() {
			return candidate, true
		}
	}

	if payload.IsObject() {
		for _, key := range probeKeys {
			if candidate, found := topLevelValue(payload, key); found && candidate.IsArray() {
				return candidate, true
			}
		}
	}

	if payload.IsArray() {
		return payload, true
	}
	return gjson.Result{}, false
}

// topLevelValue looks key up without path syntax so dots and wildcards in
// key names are taken literally.
func topLevelValue(object gjson.Result, key string) (gjson.Result, bool) {
	var (
		value gjson.Result
		found bool
	)
	object.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			value, found = v, true
		}
		return true
	})
	return value, found
}

func allRecords(elements []gjson.Result) bool {
	for _, element := range elements {
		if !element.IsObject() {
			return false
		}
	}
	return true
}

func recordsObservation(records []gjson.Result, fields []string, spec keyword.Spec, opts Options) models.Observation {
	rows := make([]string, 0, len(records))
	for _, record := range records {
		row := flattenRecord(record, fields, opts)
		if row == "" || !spec.Match(row) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Strings(rows)

	if len(rows) == 0 {
		return newObservation("", emptyMarker, []string{emptyMarker})
	}

	shown := rows
	if len(shown) > opts.MaxJSONItems {
		shown = shown[:opts.MaxJSONItems]
	}
	return newObservation(strings.Join(rows, "\n"), strings.Join(shown, " / "), shown)
}

// flattenRecord renders a record as space-separated key=value pairs.
// Explicit fields are gjson paths; otherwise the preferred keys present in
// the record are used, or its first few keys when none is present.
func flattenRecord(record gjson.Result, fields []string, opts Options) string {
	var pairs []string
	appendPair := func(key string, value gjson.Result) {
		pairs = append(pairs, key+"="+stringifyJSON(value))
	}

	if len(fields) > 0 {
		for _, field := range fields {
			if value := record.Get(field); value.Exists() {
				appendPair(field, value)
			}
		}
		return strings.Join(pairs, " ")
	}

	for _, key := range opts.JSONPreferredKeys {
		if value, found := topLevelValue(record, key); found {
			appendPair(key, value)
		}
	}
	if len(pairs) > 0 {
		return strings.Join(pairs, " ")
	}

	record.ForEach(func(key, value gjson.Result) bool {
		appendPair(key.Str, value)
		return len(pairs) < opts.JSONFallbackKeyCount
	})
	return strings.Join(pairs, " ")
}

func scalarsObservation(values []gjson.Result, spec keyword.Spec, limit int) models.Observation {
	if len(values) > limit {
		values = values[:limit]
	}
	lines := make([]string, 0, len(values))
	for _, value := range values {
		lines = append(lines, stringifyJSON(value))
	}
	return blobObservation(strings.Join(lines, "\n"), spec)
}

// stringifyJSON renders strings as their normalized text and everything
// else in canonical compact form.
func stringifyJSON(value gjson.Result) string {
	switch {
	case value.Type == gjson.String:
		return fingerprint.NormalizeSpace(value.Str)
	case value.IsObject(), value.IsArray():
		return canonicalJSON(value.Raw)
	default:
		return value.Raw
	}
}

// canonicalJSON sorts object keys and strips insignificant whitespace.
func canonicalJSON(raw string) string {
	opts := *pretty.DefaultOptions
	opts.SortKeys = true
	return string(pretty.Ugly(pretty.PrettyOptions([]byte(raw), &opts)))
}
