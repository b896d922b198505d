// Package summarize turns a query result back into conversational text via
// a second call to the text-generation capability.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aytaditya/salessense/internal/engine"
	"github.com/Aytaditya/salessense/internal/llm"
)

// EmptyResultSummary is returned for empty result sets without calling the
// generator.
const EmptyResultSummary = "The query returned no rows, so there is no data to summarize."

// maxSummaryRows bounds how many rows are embedded in the summary prompt.
const maxSummaryRows = 50

const systemPrompt = "You explain query results to a non-technical user. " +
	"Answer conversationally in a short paragraph, referencing concrete values from the result rows. " +
	"Do not mention SQL, Cypher, or code."

type Summarizer struct {
	generator llm.Generator
}

func NewSummarizer(generator llm.Generator) *Summarizer {
	return &Summarizer{generator: generator}
}

// Summarize produces the natural-language answer for a result set. Empty
// results short-circuit to EmptyResultSummary; the generator is not
// invoked for them.
func (s *Summarizer) Summarize(ctx context.Context, question, interpretation string, result engine.Result) (string, error) {
	if len(result.Rows) == 0 {
		return EmptyResultSummary, nil
	}

	rows := result.Rows
	truncated := false
	if len(rows) > maxSummaryRows {
		rows = rows[:maxSummaryRows]
		truncated = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", strings.TrimSpace(question))
	if strings.TrimSpace(interpretation) != "" {
		fmt.Fprintf(&b, "Interpretation:\n%s\n\n", strings.TrimSpace(interpretation))
	}
	b.WriteString("Result rows (JSON, one per line):\n")
	for _, row := range rows {
		encoded, err := json.Marshal(row)
		if err != nil {
			return "", fmt.Errorf("marshal result row: %w", err)
		}
		b.Write(encoded)
		b.WriteString("\n")
	}
	if truncated {
		fmt.Fprintf(&b, "(%d of %d rows shown)\n", maxSummaryRows, len(result.Rows))
	}

	response, err := s.generator.Generate(ctx, systemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return strings.TrimSpace(response), nil
}
