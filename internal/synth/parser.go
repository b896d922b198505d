package synth

import "strings"

// FallbackInterpretation is returned when a model response carries no
// recognizable fence at all.
const FallbackInterpretation = "Sorry, I could not interpret that question."

// Parsed is the tagged outcome of parsing a model response. Malformed is
// set only when no fence marker was found; in that case Interpretation is
// FallbackInterpretation and Query is empty.
type Parsed struct {
	Interpretation string
	Query          string
	Malformed      bool
}

// ParseFenced extracts (interpretation, query) from a model response.
// The response format is a tiny grammar fixed by the prompt:
//
//  1. A fence tagged with the expected language ("```"+tag): text before
//     the fence is the interpretation, text inside it is the query.
//  2. Otherwise, an untagged "```" fence: text before the first fence is
//     the interpretation, the first fenced segment is the query.
//  3. Otherwise the response is malformed.
//
// Only the first fenced block is meaningful; an unclosed fence is
// tolerated and runs to the end of the response. ParseFenced never fails
// on malformed input, it degrades to the fallback.
func ParseFenced(tag, response string) Parsed {
	tagged := "```" + tag
	if idx := indexTaggedFence(response, tagged); idx >= 0 {
		interpretation := strings.TrimSpace(response[:idx])
		rest := response[idx+len(tagged):]
		query := rest
		if end := strings.Index(rest, "```"); end >= 0 {
			query = rest[:end]
		}
		return Parsed{Interpretation: interpretation, Query: strings.TrimSpace(query)}
	}

	segments := strings.Split(response, "```")
	if len(segments) >= 2 {
		return Parsed{
			Interpretation: strings.TrimSpace(segments[0]),
			Query:          strings.TrimSpace(segments[1]),
		}
	}

	return Parsed{Interpretation: FallbackInterpretation, Malformed: true}
}

// indexTaggedFence finds a fence whose tag is exactly the expected one: the
// marker must be followed by whitespace or end of input, so "```sqlite"
// never matches the "```sql" marker.
func indexTaggedFence(response, tagged string) int {
	from := 0
	for {
		idx := strings.Index(response[from:], tagged)
		if idx < 0 {
			return -1
		}
		idx += from
		next := idx + len(tagged)
		if next >= len(response) || isTagTerminator(response[next]) {
			return idx
		}
		from = next
	}
}

func isTagTerminator(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}
