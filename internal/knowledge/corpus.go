package knowledge

import (
	"fmt"
	"strings"
)

// Entry is a single question/answer pair. Entries are immutable after load;
// identity is positional within the loaded corpus.
type Entry struct {
	Question string
	Answer   string
}

// Chunk renders the entry in the canonical "Q: ...\nA: ..." block form used
// as retrieval context for the generative fallback.
func (e Entry) Chunk() string {
	return fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer)
}

// ParseCorpus parses the line-oriented knowledge file format. A line starting
// with a case-insensitive "Q:" marker (optionally "Q :") opens a pending
// question, overwriting any unterminated one; an "A:" line while a question
// is pending emits the pair. Blank lines and anything else are ignored, so a
// malformed entry drops silently instead of failing the whole load. The
// second return value counts lines that were discarded (orphan questions and
// unmatched answer lines), for reload-time logging.
func ParseCorpus(raw string) ([]Entry, int) {
	var entries []Entry
	dropped := 0
	pending := ""
	hasPending := false

	for _, rawLine := range strings.Split(raw, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
		if line == "" {
			continue
		}

		if q, ok := stripMarker(line, 'q'); ok {
			if hasPending {
				dropped++ // orphan question replaced before an answer arrived
			}
			pending = q
			hasPending = true
			continue
		}

		if a, ok := stripMarker(line, 'a'); ok {
			if !hasPending {
				dropped++
				continue
			}
			entries = append(entries, Entry{Question: pending, Answer: a})
			pending = ""
			hasPending = false
		}
	}
	if hasPending {
		dropped++
	}
	return entries, dropped
}

// stripMarker matches a leading "<m>:" or "<m> :" marker case-insensitively
// and returns the trimmed remainder.
func stripMarker(line string, m byte) (string, bool) {
	if line == "" {
		return "", false
	}
	c := line[0]
	if c != m && c != m-'a'+'A' {
		return "", false
	}
	rest := strings.TrimLeft(line[1:], " \t")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}
