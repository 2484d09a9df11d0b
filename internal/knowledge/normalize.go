package knowledge

import "strings"

// stopwords is the closed set of English function words excluded from token
// overlap so that articles, pronouns and auxiliaries do not dominate scoring.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"then": {}, "else": {}, "when": {}, "where": {}, "who": {}, "what": {},
	"why": {}, "how": {}, "do": {}, "does": {}, "did": {}, "i": {}, "me": {},
	"my": {}, "you": {}, "your": {}, "we": {}, "our": {}, "us": {}, "is": {},
	"am": {}, "are": {}, "was": {}, "were": {}, "to": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "for": {}, "from": {}, "with": {}, "about": {},
	"into": {}, "over": {}, "under": {}, "it": {}, "this": {}, "that": {},
	"can": {}, "could": {}, "should": {}, "would": {}, "will": {},
	"shall": {}, "may": {}, "might": {}, "must": {}, "please": {},
}

// Normalize lowercases text, replaces every rune outside [a-z0-9] with a
// space, collapses whitespace runs and trims the ends. Total over any input;
// an empty string normalizes to an empty string.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	space := true // swallow leading whitespace
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize normalizes text and splits it into terms, dropping empty strings,
// terms shorter than two characters and stop words. Order follows the input;
// consumers treat the result as a set.
func Tokenize(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
