package llm

import "context"

// Generator is the text-generation capability the pipeline calls through.
// Implementations are slow, remote, and allowed to fail; callers own the
// deadline and there are no retries.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
