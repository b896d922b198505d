package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Aytaditya/salessense/internal/dataset"
	"github.com/Aytaditya/salessense/internal/engine"
	"github.com/Aytaditya/salessense/internal/engine/duckdb"
	"github.com/Aytaditya/salessense/internal/observability"
	"github.com/Aytaditya/salessense/internal/summarize"
)

type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (g *scriptedGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	i := g.calls
	g.calls++
	var response string
	if i < len(g.responses) {
		response = g.responses[i]
	}
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	return response, err
}

type failingEngine struct {
	err error
}

func (e *failingEngine) Execute(context.Context, engine.Request) (engine.Result, error) {
	return engine.Result{}, e.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func salesDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Columns: []string{"Country", "Order Value"},
		Rows: [][]any{
			{"Germany", float64(150)},
			{"Germany", float64(250)},
			{"USA", float64(100)},
		},
	}
}

func TestAskAnswersAggregationQuestion(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"Average order value per country, highest first.\n" +
			"```sql\n" +
			"SELECT Country AS country, AVG(Order_Value) AS avg_order_value FROM data GROUP BY Country ORDER BY avg_order_value DESC\n" +
			"```\n",
		"Germany has the highest average order value at 200, ahead of the USA at 100.",
	}}
	p := New(Config{
		Generator: gen,
		Engine:    duckdb.New(),
		Dialect:   "sql",
		Logger:    testLogger(),
		RowLimit:  100,
	})

	bundle := p.Ask(context.Background(), salesDataset(), "What is the average order value per country?")

	if bundle.Error != "" {
		t.Fatalf("bundle.Error = %q", bundle.Error)
	}
	if bundle.Interpretation != "Average order value per country, highest first." {
		t.Fatalf("interpretation = %q", bundle.Interpretation)
	}
	if bundle.CodeExecuted == "" {
		t.Fatal("expected code_executed to carry the query")
	}
	if len(bundle.Answer) != 2 {
		t.Fatalf("answer rows = %d, want 2", len(bundle.Answer))
	}
	if bundle.Answer[0]["country"] != "Germany" || bundle.Answer[0]["avg_order_value"] != float64(200) {
		t.Fatalf("first row = %#v", bundle.Answer[0])
	}
	if bundle.Answer[1]["country"] != "USA" || bundle.Answer[1]["avg_order_value"] != float64(100) {
		t.Fatalf("second row = %#v", bundle.Answer[1])
	}
	if bundle.Summary != "Germany has the highest average order value at 200, ahead of the USA at 100." {
		t.Fatalf("summary = %q", bundle.Summary)
	}
	if gen.calls != 2 {
		t.Fatalf("generator calls = %d, want 2", gen.calls)
	}
}

func TestAskMalformedResponseReturnsErrorBundle(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"I cannot answer that question."}}
	p := New(Config{
		Generator: gen,
		Engine:    duckdb.New(),
		Dialect:   "sql",
		Logger:    testLogger(),
	})

	bundle := p.Ask(context.Background(), salesDataset(), "question")

	if bundle.Error == "" {
		t.Fatal("expected error in bundle")
	}
	if bundle.CodeExecuted != "" {
		t.Fatalf("code_executed = %q, want empty", bundle.CodeExecuted)
	}
	if bundle.Summary != "" {
		t.Fatalf("summary = %q, want empty", bundle.Summary)
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1 (no summary attempt)", gen.calls)
	}
}

func TestAskQueriesSanitizedColumnNames(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"Order#Value", "Country"},
		Rows: [][]any{
			{float64(10), "Germany"},
			{float64(30), "Germany"},
		},
	}
	gen := &scriptedGenerator{responses: []string{
		"Total of the order value column.\n" +
			"```sql\nSELECT SUM(Order_Value) AS total FROM data\n```",
		"The orders add up to 40.",
	}}
	p := New(Config{
		Generator: gen,
		Engine:    duckdb.New(),
		Dialect:   "sql",
		Logger:    testLogger(),
	})

	bundle := p.Ask(context.Background(), ds, "What do the orders add up to?")

	if bundle.Error != "" {
		t.Fatalf("bundle.Error = %q", bundle.Error)
	}
	if len(bundle.Answer) != 1 || bundle.Answer[0]["total"] != float64(40) {
		t.Fatalf("answer = %#v", bundle.Answer)
	}
}

func TestAskExecutionFailureKeepsQueryText(t *testing.T) {
	const query = "SELECT nope FROM data"
	gen := &scriptedGenerator{responses: []string{
		"interp\n```sql\n" + query + "\n```",
	}}
	p := New(Config{
		Generator: gen,
		Engine:    &failingEngine{err: errors.New("column nope does not exist")},
		Dialect:   "sql",
		Logger:    testLogger(),
	})

	bundle := p.Ask(context.Background(), salesDataset(), "question")

	if bundle.Error == "" {
		t.Fatal("expected error in bundle")
	}
	if bundle.CodeExecuted != query {
		t.Fatalf("code_executed = %q, want %q", bundle.CodeExecuted, query)
	}
	if len(bundle.Answer) != 0 {
		t.Fatalf("answer = %#v, want empty", bundle.Answer)
	}
}

func TestAskSummarizationFailureKeepsRows(t *testing.T) {
	gen := &scriptedGenerator{
		responses: []string{
			"interp\n```sql\nSELECT country FROM data GROUP BY country ORDER BY country\n```",
			"",
		},
		errs: []error{nil, errors.New("model overloaded")},
	}
	p := New(Config{
		Generator: gen,
		Engine:    duckdb.New(),
		Dialect:   "sql",
		Logger:    testLogger(),
	})

	bundle := p.Ask(context.Background(), salesDataset(), "question")

	if bundle.Error != "" {
		t.Fatalf("bundle.Error = %q, summary failure is non-fatal", bundle.Error)
	}
	if len(bundle.Answer) != 2 {
		t.Fatalf("answer rows = %d, want 2", len(bundle.Answer))
	}
	if bundle.Summary != SummaryUnavailable {
		t.Fatalf("summary = %q", bundle.Summary)
	}
}

// traceCapturingHandler records the trace id carried by the context of
// each log record it handles.
type traceCapturingHandler struct {
	traceIDs *[]string
}

func (h traceCapturingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h traceCapturingHandler) Handle(ctx context.Context, _ slog.Record) error {
	*h.traceIDs = append(*h.traceIDs, observability.TraceIDFromContext(ctx))
	return nil
}

func (h traceCapturingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h traceCapturingHandler) WithGroup(string) slog.Handler { return h }

func TestAskFailureLogCarriesRequestTraceID(t *testing.T) {
	var traceIDs []string
	gen := &scriptedGenerator{responses: []string{
		"interp\n```sql\nSELECT nope FROM data\n```",
	}}
	p := New(Config{
		Generator: gen,
		Engine:    &failingEngine{err: errors.New("column nope does not exist")},
		Dialect:   "sql",
		Logger:    slog.New(traceCapturingHandler{traceIDs: &traceIDs}),
	})

	ctx := observability.ContextWithTraceID(context.Background(), "trace-42")
	bundle := p.Ask(ctx, salesDataset(), "question")

	if bundle.Error == "" {
		t.Fatal("expected error in bundle")
	}
	if len(traceIDs) == 0 {
		t.Fatal("expected a failure log record")
	}
	for _, id := range traceIDs {
		if id != "trace-42" {
			t.Fatalf("logged trace id = %q, want %q", id, "trace-42")
		}
	}
}

func TestAskEmptyResultUsesCannedSummaryWithoutSecondCall(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"interp\n```sql\nSELECT country FROM data WHERE country = 'France'\n```",
	}}
	p := New(Config{
		Generator: gen,
		Engine:    duckdb.New(),
		Dialect:   "sql",
		Logger:    testLogger(),
	})

	bundle := p.Ask(context.Background(), salesDataset(), "question")

	if bundle.Error != "" {
		t.Fatalf("bundle.Error = %q", bundle.Error)
	}
	if len(bundle.Answer) != 0 {
		t.Fatalf("answer = %#v, want empty slice", bundle.Answer)
	}
	if bundle.Answer == nil {
		t.Fatal("answer should be an empty slice, not nil")
	}
	if bundle.Summary != summarize.EmptyResultSummary {
		t.Fatalf("summary = %q", bundle.Summary)
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}
}
