package dataset

import (
	"fmt"
	"math"
	"regexp"
)

// Dataset is an in-memory table built from one uploaded file. Columns are
// ordered; every row carries one value per column. Values are string,
// float64, bool, or nil. A Dataset lives for a single request and is never
// persisted.
type Dataset struct {
	Columns []string
	Rows    [][]any

	// originals maps a sanitized column name back to the uploaded name.
	// Populated by Sanitize; empty until then.
	originals map[string]string
}

// DefaultSampleRows is the number of rows embedded into prompts.
const DefaultSampleRows = 3

var invalidIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeName replaces every character outside [A-Za-z0-9_] with an
// underscore. A name that ends up empty becomes "col". Applying it twice
// yields the same result.
func SanitizeName(name string) string {
	cleaned := invalidIdentChars.ReplaceAllString(name, "_")
	if cleaned == "" {
		return "col"
	}
	return cleaned
}

// Sanitize returns a copy of the dataset whose column names are safe
// identifiers. Two distinct source columns that collapse to the same name
// get numeric suffixes in first-seen order (x, x_2, x_3, ...). Row data is
// shared with the receiver; only the labels are new.
func (d *Dataset) Sanitize() *Dataset {
	sanitized := &Dataset{
		Columns:   make([]string, len(d.Columns)),
		Rows:      d.Rows,
		originals: make(map[string]string, len(d.Columns)),
	}
	seen := make(map[string]bool, len(d.Columns))
	for i, name := range d.Columns {
		base := SanitizeName(name)
		cleaned := base
		// A suffixed candidate can itself collide with a name another
		// column already produced, so keep counting until one is free.
		for n := 2; seen[cleaned]; n++ {
			cleaned = fmt.Sprintf("%s_%d", base, n)
		}
		seen[cleaned] = true
		sanitized.Columns[i] = cleaned
		sanitized.originals[cleaned] = name
	}
	return sanitized
}

// OriginalName maps a sanitized column name back to the uploaded spelling.
func (d *Dataset) OriginalName(sanitized string) string {
	if original, ok := d.originals[sanitized]; ok {
		return original
	}
	return sanitized
}

// NormalizeNonFinite replaces NaN and ±Inf cells with nil in place so that
// nothing non-finite reaches the query engine or a JSON encoder.
func (d *Dataset) NormalizeNonFinite() {
	for _, row := range d.Rows {
		for i, value := range row {
			row[i] = ScrubValue(value)
		}
	}
}

// ScrubValue maps non-finite floats to nil and leaves every other value
// untouched.
func ScrubValue(value any) any {
	switch typed := value.(type) {
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil
		}
	case float32:
		f := float64(typed)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	}
	return value
}

// SchemaContext is the prompt-facing description of a dataset: the column
// list and a small leading sample. Immutable once built for a request.
type SchemaContext struct {
	Columns    []string         `json:"columns"`
	SampleRows []map[string]any `json:"sample_rows"`
}

// SchemaContext returns the column list and the first sampleRows rows as
// name-to-value maps. A non-positive sampleRows falls back to
// DefaultSampleRows.
func (d *Dataset) SchemaContext(sampleRows int) SchemaContext {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	if sampleRows > len(d.Rows) {
		sampleRows = len(d.Rows)
	}
	sample := make([]map[string]any, 0, sampleRows)
	for _, row := range d.Rows[:sampleRows] {
		entry := make(map[string]any, len(d.Columns))
		for i, name := range d.Columns {
			if i < len(row) {
				entry[name] = ScrubValue(row[i])
			}
		}
		sample = append(sample, entry)
	}
	return SchemaContext{Columns: append([]string(nil), d.Columns...), SampleRows: sample}
}
