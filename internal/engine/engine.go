package engine

import (
	"context"
	"time"

	"github.com/Aytaditya/salessense/internal/dataset"
)

// Request asks an engine to execute one synthesized query. Dataset is nil
// for engines whose data lives outside the request (the graph binding).
type Request struct {
	Dataset     *dataset.Dataset
	Query       string
	RowLimit    int
	AllowWrites bool
}

// Result is an ordered result set. Rows map result-column names to scalar
// values; Columns preserves the engine's column order.
type Result struct {
	Columns  []string
	Rows     []map[string]any
	Duration time.Duration
}

// Engine executes exactly the query text it is given against a
// request-scoped data source. Execution errors are returned verbatim so
// callers can surface them for debugging.
type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}
