package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/Aytaditya/salessense/internal/dataset"
	"github.com/Aytaditya/salessense/internal/engine"
	"github.com/Aytaditya/salessense/internal/synth"
)

// Engine runs synthesized SQL against an in-memory DuckDB instance created
// for the request and discarded with it. The dataset is loaded under the
// fixed table name before the query runs.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Execute(ctx context.Context, request engine.Request) (engine.Result, error) {
	sqlText := stripTrailingSemicolons(request.Query)
	if sqlText == "" {
		return engine.Result{}, fmt.Errorf("sql is required")
	}
	if request.Dataset == nil {
		return engine.Result{}, fmt.Errorf("dataset is required")
	}
	if !request.AllowWrites && !isReadOnlySQL(sqlText) {
		return engine.Result{}, fmt.Errorf("only read-only SELECT/WITH queries are allowed")
	}

	start := time.Now()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return engine.Result{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := loadDataset(ctx, db, request.Dataset); err != nil {
		return engine.Result{}, err
	}

	if request.RowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, request.RowLimit)
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return engine.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return engine.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return engine.Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, name := range columns {
			row[name] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return engine.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return engine.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func loadDataset(ctx context.Context, db *sql.DB, ds *dataset.Dataset) error {
	if len(ds.Columns) == 0 {
		return fmt.Errorf("dataset has no columns")
	}

	types := inferColumnTypes(ds)
	defs := make([]string, len(ds.Columns))
	for i, name := range ds.Columns {
		defs[i] = quoteIdent(name) + " " + types[i]
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(synth.TableName), strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %q: %w", synth.TableName, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ds.Columns)), ",")
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(synth.TableName), placeholders)
	stmt, err := db.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range ds.Rows {
		args := make([]any, len(ds.Columns))
		for i := range ds.Columns {
			var value any
			if i < len(row) {
				value = dataset.ScrubValue(row[i])
			}
			args[i] = coerceForColumn(value, types[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return nil
}

// inferColumnTypes picks DOUBLE/BOOLEAN/VARCHAR per column: a column whose
// non-nil values all share a Go type gets the matching DuckDB type,
// anything mixed stays VARCHAR.
func inferColumnTypes(ds *dataset.Dataset) []string {
	types := make([]string, len(ds.Columns))
	for c := range ds.Columns {
		numeric := true
		boolean := true
		seen := false
		for _, row := range ds.Rows {
			if c >= len(row) || row[c] == nil {
				continue
			}
			seen = true
			switch row[c].(type) {
			case float64:
				boolean = false
			case bool:
				numeric = false
			default:
				numeric = false
				boolean = false
			}
		}
		switch {
		case seen && numeric:
			types[c] = "DOUBLE"
		case seen && boolean:
			types[c] = "BOOLEAN"
		default:
			types[c] = "VARCHAR"
		}
	}
	return types
}

func coerceForColumn(value any, columnType string) any {
	if value == nil {
		return nil
	}
	if columnType == "VARCHAR" {
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("%v", value)
		}
	}
	return value
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	default:
		return dataset.ScrubValue(typed)
	}
}

func isReadOnlySQL(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	return strings.HasPrefix(normalized, "select") || strings.HasPrefix(normalized, "with")
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
