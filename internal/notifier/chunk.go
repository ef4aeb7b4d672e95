package notifier

import (
	"strings"
	"unicode/utf8"
)

// Chunk packs messages into as few chunks as possible, none longer than
// limit characters. Messages are kept whole when they fit, separated by a
// blank line; longer ones are split at line boundaries, and single lines
// longer than limit are cut. Blank messages are dropped. A non-positive
// limit uses DefaultChunkSize.
func Chunk(messages []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkSize
	}

	c := &chunker{limit: limit}
	for _, msg := range messages {
		msg = strings.TrimRight(msg, " \t\r\n")
		if strings.TrimSpace(msg) == "" {
			continue
		}
		if utf8.RuneCountInString(msg) <= limit {
			c.add(msg, messageSeparator)
			continue
		}
		for i, line := range strings.Split(msg, "\n") {
			sep := "\n"
			if i == 0 {
				sep = messageSeparator
			}
			for _, piece := range splitRunes(line, limit) {
				c.add(piece, sep)
				sep = "\n"
			}
		}
	}
	c.flush()
	return c.chunks
}

type chunker struct {
	limit  int
	chunks []string
	cur    strings.Builder
	runes  int
}

func (c *chunker) add(piece, sep string) {
	n := utf8.RuneCountInString(piece)
	if c.runes == 0 {
		if n == 0 {
			return
		}
		c.cur.WriteString(piece)
		c.runes = n
		return
	}
	if c.runes+utf8.RuneCountInString(sep)+n > c.limit {
		c.flush()
		c.add(piece, sep)
		return
	}
	c.cur.WriteString(sep)
	c.cur.WriteString(piece)
	c.runes += utf8.RuneCountInString(sep) + n
}

func (c *chunker) flush() {
	if c.runes == 0 {
		return
	}
	if chunk := strings.TrimRight(c.cur.String(), "\n"); chunk != "" {
		c.chunks = append(c.chunks, chunk)
	}
	c.cur.Reset()
	c.runes = 0
}

// splitRunes cuts s into pieces of at most limit runes.
func splitRunes(s string, limit int) []string {
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var pieces []string
	for s != "" {
		end, count := 0, 0
		for end < len(s) && count < limit {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
			count++
		}
		pieces = append(pieces, s[:end])
		s = s[end:]
	}
	return pieces
}
