// Package synth turns a natural-language question plus schema context into
// an executable query by prompting a text-generation capability and
// parsing its fenced response.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Aytaditya/salessense/internal/dataset"
	"github.com/Aytaditya/salessense/internal/llm"
)

// Dialect selects the target query language and the fence tag the model is
// asked to emit.
type Dialect string

const (
	DialectSQL    Dialect = "sql"
	DialectCypher Dialect = "cypher"
)

// ErrEmptyQuery reports that the model response parsed to an empty query.
// This is fatal for the request and is not retried.
var ErrEmptyQuery = errors.New("model response contained no executable query")

// Result is the synthesized (interpretation, query) pair. Interpretation
// may be populated even when Synthesize returns an error.
type Result struct {
	Interpretation string
	Query          string
}

// Synthesizer builds prompts for one dialect and parses responses.
type Synthesizer struct {
	generator llm.Generator
	dialect   Dialect
}

func NewSynthesizer(generator llm.Generator, dialect Dialect) *Synthesizer {
	return &Synthesizer{generator: generator, dialect: dialect}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, schema dataset.SchemaContext) (Result, error) {
	userPrompt, err := s.buildUserPrompt(question, schema)
	if err != nil {
		return Result{}, err
	}

	response, err := s.generator.Generate(ctx, s.systemPrompt(), userPrompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate query: %w", err)
	}

	parsed := ParseFenced(string(s.dialect), response)
	result := Result{Interpretation: parsed.Interpretation, Query: parsed.Query}
	if parsed.Query == "" {
		return result, ErrEmptyQuery
	}
	return result, nil
}

// TableName is the fixed relational table the dataset is loaded under.
const TableName = "data"

// graphSchema describes the fixed transaction graph the Cypher dialect
// targets.
const graphSchema = `(:Customer)-[:LIVES_IN]->(:Country)
(:Customer)-[:MADE]->(:Transaction)-[:PURCHASED]->(:Product)

Node properties:
- Customer: id
- Country: name
- Transaction: id, date, quantity, total_amount
- Product: id, name, price

Relationships:
- (Customer)-[:LIVES_IN]->(Country)
- (Customer)-[:MADE]->(Transaction)
- (Transaction)-[:PURCHASED]->(Product)`

func (s *Synthesizer) systemPrompt() string {
	switch s.dialect {
	case DialectCypher:
		return "You are an expert Neo4j Cypher query generator. " +
			"Generate read-only queries: no CREATE, MERGE, DELETE, SET, or REMOVE. " +
			"Relationship names must exactly match LIVES_IN, MADE, PURCHASED, and property names " +
			"id, name, date, quantity, total_amount, price. Use proper aggregation and return " +
			"user-friendly column names with AS aliases. " +
			"Answer with a one-sentence interpretation of the question, then exactly one fenced " +
			"```cypher code block containing a single executable query."
	default:
		return "You convert natural-language questions about an uploaded table into a single DuckDB SQL query. " +
			"DuckDB uses PostgreSQL-like syntax. The table is named " + TableName + ". " +
			"Generate only read-only SELECT statements: no INSERT, UPDATE, DELETE, or DDL. " +
			"Use only the listed columns and return user-friendly column names with AS aliases. " +
			"Answer with a one-sentence interpretation of the question, then exactly one fenced " +
			"```sql code block containing a single executable query."
	}
}

func (s *Synthesizer) buildUserPrompt(question string, schema dataset.SchemaContext) (string, error) {
	var b strings.Builder

	switch s.dialect {
	case DialectCypher:
		b.WriteString("The Neo4j database has the following schema:\n\n")
		b.WriteString(graphSchema)
		b.WriteString("\n")
	default:
		schemaJSON, err := json.Marshal(schema)
		if err != nil {
			return "", fmt.Errorf("marshal schema context: %w", err)
		}
		fmt.Fprintf(&b, "Table %q schema and sample rows (JSON):\n%s\n", TableName, schemaJSON)
	}

	fmt.Fprintf(&b, "\nQuestion:\n%s\n", strings.TrimSpace(question))
	return b.String(), nil
}
