package knowledge

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync/atomic"
)

// Params holds the tunable retrieval constants. The defaults are the shipped
// reference tuning; operators may loosen MinScore at the cost of precision.
type Params struct {
	// MinScore is the acceptance floor on the composite score.
	MinScore float64
	// MinOverlapShort / MinOverlapLong are the distinct query/question token
	// overlap requirements below and at-or-above LongQueryTokens.
	MinOverlapShort int
	MinOverlapLong  int
	LongQueryTokens int
	// QuestionWeight and AnswerWeight combine the two Jaccard scores; the
	// question text carries the stronger signal.
	QuestionWeight float64
	AnswerWeight   float64
	// JaccardWeight and LevenshteinWeight combine token overlap with the
	// edit-distance similarity that recovers near-duplicate phrasing.
	JaccardWeight     float64
	LevenshteinWeight float64
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return Params{
		MinScore:          0.24,
		MinOverlapShort:   2,
		MinOverlapLong:    3,
		LongQueryTokens:   6,
		QuestionWeight:    0.75,
		AnswerWeight:      0.25,
		JaccardWeight:     0.7,
		LevenshteinWeight: 0.3,
	}
}

// ScoredMatch is one corpus entry with its composite score for a query.
type ScoredMatch struct {
	Entry        Entry
	Score        float64
	OverlapCount int
}

// Answer is a qualifying best match.
type Answer struct {
	Answer     string
	Confidence float64
}

type snapshot struct {
	entries []Entry
}

// Engine matches free-text queries against an in-memory corpus of Q/A pairs.
// The corpus is an effectively-immutable snapshot swapped wholesale on
// reload, so concurrent queries never observe a partially replaced corpus
// and need no locking among themselves.
type Engine struct {
	params Params
	logger *log.Logger
	snap   atomic.Pointer[snapshot]
}

// NewEngine returns an engine with an empty corpus. A nil logger is allowed.
func NewEngine(params Params, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[KB] ", log.LstdFlags)
	}
	e := &Engine{params: params, logger: logger}
	e.snap.Store(&snapshot{})
	return e
}

// Count reports the number of loaded entries.
func (e *Engine) Count() int {
	return len(e.snap.Load().entries)
}

// Reload parses raw and atomically replaces the whole corpus. Malformed
// lines are dropped, never fatal; the dropped count is logged only.
func (e *Engine) Reload(raw string) {
	entries, dropped := ParseCorpus(raw)
	e.snap.Store(&snapshot{entries: entries})
	e.logger.Printf("corpus loaded: %d entries (%d lines dropped)", len(entries), dropped)
}

// ReloadFromFile reads path and reloads the corpus from its contents. On a
// read failure the engine degrades to an empty corpus so every query answers
// "no match" until a later reload succeeds.
func (e *Engine) ReloadFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		e.snap.Store(&snapshot{})
		e.logger.Printf("corpus load failed, serving empty corpus: %v", err)
		return fmt.Errorf("read corpus %s: %w", path, err)
	}
	e.Reload(string(raw))
	return nil
}

// Search scores every corpus entry against query and returns the qualifying
// matches sorted by descending score; ties keep corpus order. An empty query
// or empty corpus yields no matches.
func (e *Engine) Search(query string) []ScoredMatch {
	entries := e.snap.Load().entries
	if len(entries) == 0 {
		return nil
	}
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}
	querySet := tokenSet(queryTokens)
	normQuery := Normalize(query)

	minOverlap := e.params.MinOverlapShort
	if len(queryTokens) >= e.params.LongQueryTokens {
		minOverlap = e.params.MinOverlapLong
	}

	var matches []ScoredMatch
	for _, entry := range entries {
		questionTokens := Tokenize(entry.Question)
		answerTokens := Tokenize(entry.Answer)

		scoreQ := Jaccard(queryTokens, questionTokens)
		scoreA := Jaccard(queryTokens, answerTokens)
		composite := e.params.QuestionWeight*scoreQ + e.params.AnswerWeight*scoreA

		normQuestion := Normalize(entry.Question)
		maxLen := len(normQuery)
		if len(normQuestion) > maxLen {
			maxLen = len(normQuestion)
		}
		if maxLen < 1 {
			maxLen = 1
		}
		levSim := 1 - float64(Levenshtein(normQuery, normQuestion))/float64(maxLen)

		final := e.params.JaccardWeight*composite + e.params.LevenshteinWeight*levSim

		overlap := 0
		for t := range tokenSet(questionTokens) {
			if _, ok := querySet[t]; ok {
				overlap++
			}
		}

		if final >= e.params.MinScore && overlap >= minOverlap {
			matches = append(matches, ScoredMatch{Entry: entry, Score: final, OverlapCount: overlap})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// TopK returns up to k qualifying entries formatted as "Q: ...\nA: ..."
// chunks, best first, for use as context fed to the generative fallback.
// A non-positive k yields no chunks.
func (e *Engine) TopK(query string, k int) []string {
	if k <= 0 {
		return nil
	}
	matches := e.Search(query)
	if len(matches) > k {
		matches = matches[:k]
	}
	chunks := make([]string, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, m.Entry.Chunk())
	}
	return chunks
}

// BestAnswer returns the top qualifying match. The second return value is
// false when nothing qualifies; callers must not treat a low-confidence
// guess as an answer.
func (e *Engine) BestAnswer(query string) (Answer, bool) {
	matches := e.Search(query)
	if len(matches) == 0 {
		return Answer{}, false
	}
	return Answer{Answer: matches[0].Entry.Answer, Confidence: matches[0].Score}, true
}
