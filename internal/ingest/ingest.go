// Package ingest turns uploaded spreadsheet bytes into an in-memory
// Dataset. It is the boundary in front of the question pipeline: column
// typing and date normalization happen here, once, so every later stage
// sees uniform scalar values.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Aytaditya/salessense/internal/dataset"
)

// ErrUnsupportedFormat is returned for uploads that are neither CSV nor
// Parquet.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// dateLayouts are tried in order when detecting date columns. Matching
// columns are normalized to YYYY-MM-DD strings.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// FromUpload dispatches on the uploaded filename extension.
func FromUpload(filename string, r io.Reader) (*dataset.Dataset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FromCSV(r)
	case ".parquet":
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return FromParquet(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// typeColumn converts one column of raw cell strings into typed values.
// The whole column must agree on a type; otherwise it stays textual.
// Empty cells become nil in every case.
func typeColumn(cells []string) []any {
	numeric := true
	boolean := true
	date := true
	nonEmpty := 0

	for _, cell := range cells {
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if numeric {
			if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
				numeric = false
			}
		}
		if boolean {
			lower := strings.ToLower(trimmed)
			if lower != "true" && lower != "false" {
				boolean = false
			}
		}
		if date {
			if _, ok := parseDate(trimmed); !ok {
				date = false
			}
		}
	}

	values := make([]any, len(cells))
	for i, cell := range cells {
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" {
			values[i] = nil
			continue
		}
		switch {
		case nonEmpty > 0 && numeric:
			parsed, _ := strconv.ParseFloat(trimmed, 64)
			values[i] = dataset.ScrubValue(parsed)
		case nonEmpty > 0 && boolean:
			values[i] = strings.EqualFold(trimmed, "true")
		case nonEmpty > 0 && date:
			parsed, _ := parseDate(trimmed)
			values[i] = parsed.Format("2006-01-02")
		default:
			values[i] = cell
		}
	}
	return values
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
