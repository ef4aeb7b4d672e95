// Package keyword implements the include/exclude keyword filter shared by
// every extractor.
//
// Expressions use '|' to separate terms; a term starting with '!' excludes.
// Matching is a case-insensitive substring test with no escaping, so a literal
// '|' cannot be part of a term.
package keyword

import (
	"fmt"
	"strings"
)

const (
	termSeparator = "|"
	excludeMarker = "!"
)

// Spec holds the parsed include and exclude terms, lowercased and deduplicated.
type Spec struct {
	Includes []string
	Excludes []string
}

// Parse turns an expression such as "alpha|beta|!gamma" into a Spec.
// Blank expressions yield an empty Spec that matches everything. Terms that
// are empty after trimming, including a bare "!", are ignored.
func Parse(expr string) Spec {
	var spec Spec
	if strings.TrimSpace(expr) == "" {
		return spec
	}

	for _, raw := range strings.Split(expr, termSeparator) {
		term := strings.ToLower(strings.TrimSpace(raw))
		if strings.HasPrefix(term, excludeMarker) {
			term = strings.TrimSpace(strings.TrimPrefix(term, excludeMarker))
			if term != "" {
				spec.Excludes = appendUnique(spec.Excludes, term)
			}
			continue
		}
		if term != "" {
			spec.Includes = appendUnique(spec.Includes, term)
		}
	}
	return spec
}

// IsEmpty reports whether the spec filters nothing.
func (s Spec) IsEmpty() bool {
	return len(s.Includes) == 0 && len(s.Excludes) == 0
}

// Match reports whether text passes the filter. Any exclude hit wins over
// includes; with no includes, everything not excluded matches.
func (s Spec) Match(text string) bool {
	lowered := strings.ToLower(text)

	for _, term := range s.Excludes {
		if strings.Contains(lowered, term) {
			return false
		}
	}
	if len(s.Includes) == 0 {
		return true
	}
	for _, term := range s.Includes {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// String renders the spec back into expression form.
func (s Spec) String() string {
	terms := make([]string, 0, len(s.Includes)+len(s.Excludes))
	terms = append(terms, s.Includes...)
	for _, term := range s.Excludes {
		terms = append(terms, excludeMarker+term)
	}
	return strings.Join(terms, termSeparator)
}

// GoString is used by %#v in log and test output.
func (s Spec) GoString() string {
	return fmt.Sprintf("keyword.Spec{includes:%q, excludes:%q}", s.Includes, s.Excludes)
}

func appendUnique(terms []string, term string) []string {
	for _, existing := range terms {
		if existing == term {
			return terms
		}
	}
	return append(terms, term)
}
