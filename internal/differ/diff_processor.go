// Package differ computes line diffs between two observations' detail lines.
package differ

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineOp tells whether a line was kept, added or removed.
type LineOp int

const (
	LineEqual LineOp = iota
	LineAdded
	LineRemoved
)

// DiffLine is one line of a line-level diff.
type DiffLine struct {
	Op   LineOp
	Text string
}

// DiffStatistics holds diff calculation results
type DiffStatistics struct {
	LinesAdded   int
	LinesDeleted int
	IsIdentical  bool
}

// DiffProcessor handles the core diffing logic
type DiffProcessor struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewDiffProcessor creates a new diff processor
func NewDiffProcessor() *DiffProcessor {
	return &DiffProcessor{dmp: diffmatchpatch.New()}
}

// LineDiff diffs two sets of lines, keeping whole lines as the diff unit.
func (dp *DiffProcessor) LineDiff(before, after []string) []DiffLine {
	text1, text2, lineArray := dp.dmp.DiffLinesToChars(joinLines(before), joinLines(after))
	diffs := dp.dmp.DiffMain(text1, text2, false)
	diffs = dp.dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	for _, diff := range diffs {
		op := LineEqual
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			op = LineAdded
		case diffmatchpatch.DiffDelete:
			op = LineRemoved
		}
		for _, text := range strings.SplitAfter(diff.Text, "\n") {
			if text == "" {
				continue
			}
			lines = append(lines, DiffLine{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return lines
}

// CalculateStats counts added and removed lines.
func CalculateStats(lines []DiffLine) DiffStatistics {
	stats := DiffStatistics{}
	for _, line := range lines {
		switch line.Op {
		case LineAdded:
			stats.LinesAdded++
		case LineRemoved:
			stats.LinesDeleted++
		}
	}
	stats.IsIdentical = stats.LinesAdded == 0 && stats.LinesDeleted == 0
	return stats
}

// Render formats the changed lines as "+ line" / "- line", skipping blank
// lines and stopping after limit lines. A non-positive limit means no limit.
func Render(lines []DiffLine, limit int) []string {
	var out []string
	for _, line := range lines {
		if line.Op == LineEqual || strings.TrimSpace(line.Text) == "" {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		prefix := "+ "
		if line.Op == LineRemoved {
			prefix = "- "
		}
		out = append(out, prefix+line.Text)
	}
	return out
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
