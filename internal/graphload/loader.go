// Package graphload bulk-loads sales transaction exports into Neo4j. Each
// CSV row becomes a Customer, Country, Product, and Transaction node wired
// with LIVES_IN, MADE, and PURCHASED relationships; MERGE keeps reruns
// idempotent.
package graphload

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// batchSize bounds how many rows go into one write transaction.
const batchSize = 500

var requiredColumns = []string{
	"TransactionNo", "Date", "ProductNo", "ProductName", "Price", "Quantity", "CustomerNo", "Country",
}

var constraints = []string{
	"CREATE CONSTRAINT customer_id IF NOT EXISTS FOR (c:Customer) REQUIRE c.id IS UNIQUE",
	"CREATE CONSTRAINT country_name IF NOT EXISTS FOR (c:Country) REQUIRE c.name IS UNIQUE",
	"CREATE CONSTRAINT product_id IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE",
	"CREATE CONSTRAINT transaction_id IF NOT EXISTS FOR (t:Transaction) REQUIRE t.id IS UNIQUE",
}

const loadCypher = `
UNWIND $rows AS row
MERGE (customer:Customer {id: row.customer_no})
MERGE (country:Country {name: row.country})
MERGE (product:Product {id: row.product_no})
  ON CREATE SET product.name = row.product_name, product.price = row.price
MERGE (tx:Transaction {id: row.transaction_no})
  ON CREATE SET tx.date = row.date, tx.quantity = row.quantity, tx.total_amount = row.total_amount
MERGE (customer)-[:LIVES_IN]->(country)
MERGE (customer)-[:MADE]->(tx)
MERGE (tx)-[:PURCHASED]->(product)`

type Loader struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

func NewLoader(driver neo4j.DriverWithContext, database string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{driver: driver, database: database, logger: logger}
}

// EnsureConstraints creates the uniqueness constraints the MERGE statements
// rely on. Safe to call on every run.
func (l *Loader) EnsureConstraints(ctx context.Context) error {
	session := l.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.database})
	defer func() { _ = session.Close(ctx) }()

	for _, constraint := range constraints {
		if _, err := session.Run(ctx, constraint, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}
	return nil
}

// Load streams the CSV into the graph and returns the number of rows
// written.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return 0, err
	}

	session := l.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.database})
	defer func() { _ = session.Close(ctx) }()

	total := 0
	batch := make([]map[string]any, 0, batchSize)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read record: %w", err)
		}
		params, err := rowParams(index, record)
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, params)
		if len(batch) == batchSize {
			if err := l.writeBatch(ctx, session, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := l.writeBatch(ctx, session, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}

	l.logger.InfoContext(ctx, "graph_load_completed", slog.Int("rows", total))
	return total, nil
}

func (l *Loader) writeBatch(ctx context.Context, session neo4j.SessionWithContext, batch []map[string]any) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, loadCypher, map[string]any{"rows": batch})
		if err != nil {
			return nil, err
		}
		return nil, result.Err()
	})
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return index, nil
}

func rowParams(index map[string]int, record []string) (map[string]any, error) {
	field := func(name string) string {
		i := index[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	price, err := strconv.ParseFloat(field("Price"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", field("Price"), err)
	}
	quantity, err := strconv.ParseFloat(field("Quantity"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse quantity %q: %w", field("Quantity"), err)
	}

	return map[string]any{
		"transaction_no": field("TransactionNo"),
		"date":           normalizeDate(field("Date")),
		"product_no":     field("ProductNo"),
		"product_name":   field("ProductName"),
		"price":          price,
		"quantity":       quantity,
		"total_amount":   price * quantity,
		"customer_no":    field("CustomerNo"),
		"country":        field("Country"),
	}, nil
}

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2/1/2006"}

// normalizeDate rewrites recognized layouts to YYYY-MM-DD and passes
// anything else through unchanged.
func normalizeDate(value string) string {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return value
}
