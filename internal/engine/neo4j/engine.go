// Package neo4j binds the query pipeline to a Neo4j graph holding the
// fixed Customer/Country/Transaction/Product transaction schema.
package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Aytaditya/salessense/internal/dataset"
	"github.com/Aytaditya/salessense/internal/engine"
)

// Engine executes synthesized Cypher in a read transaction. Unlike the
// relational binding, the graph is a persistent store addressed per
// request; nothing is loaded here.
type Engine struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewEngine(driver neo4j.DriverWithContext, database string) *Engine {
	return &Engine{driver: driver, database: database}
}

// mutatingClauses are rejected unless writes are explicitly allowed. The
// read transaction would refuse them anyway; checking first produces a
// clearer error.
var mutatingClauses = []string{"create", "merge", "delete", "detach", "set", "remove", "drop"}

func (e *Engine) Execute(ctx context.Context, request engine.Request) (engine.Result, error) {
	cypher := strings.TrimSpace(request.Query)
	if cypher == "" {
		return engine.Result{}, fmt.Errorf("cypher is required")
	}
	if !request.AllowWrites {
		if clause, ok := findMutatingClause(cypher); ok {
			return engine.Result{}, fmt.Errorf("mutating clause %s is not allowed", strings.ToUpper(clause))
		}
	}

	start := time.Now()
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.database})
	defer func() { _ = session.Close(ctx) }()

	value, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		var columns []string
		if len(records) > 0 {
			columns = records[0].Keys
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			row := make(map[string]any, len(record.Keys))
			for _, key := range record.Keys {
				raw, _ := record.Get(key)
				row[key] = convertValue(raw)
			}
			rows = append(rows, row)
		}
		return engine.Result{Columns: columns, Rows: rows}, nil
	})
	if err != nil {
		return engine.Result{}, fmt.Errorf("execute cypher: %w", err)
	}

	result := value.(engine.Result)
	result.Duration = time.Since(start)
	return result, nil
}

func findMutatingClause(cypher string) (string, bool) {
	lowered := strings.ToLower(cypher)
	for _, clause := range mutatingClauses {
		idx := 0
		for {
			pos := strings.Index(lowered[idx:], clause)
			if pos < 0 {
				break
			}
			pos += idx
			before := pos == 0 || !isWordChar(lowered[pos-1])
			afterIdx := pos + len(clause)
			after := afterIdx >= len(lowered) || !isWordChar(lowered[afterIdx])
			if before && after {
				return clause, true
			}
			idx = afterIdx
		}
	}
	return "", false
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// convertValue flattens driver types into plain scalars and maps so
// results serialize like the relational binding's.
func convertValue(value any) any {
	switch typed := value.(type) {
	case neo4j.Node:
		props := make(map[string]any, len(typed.Props))
		for k, v := range typed.Props {
			props[k] = convertValue(v)
		}
		return props
	case neo4j.Relationship:
		props := make(map[string]any, len(typed.Props))
		for k, v := range typed.Props {
			props[k] = convertValue(v)
		}
		return props
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = convertValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = convertValue(v)
		}
		return out
	default:
		return dataset.ScrubValue(typed)
	}
}
