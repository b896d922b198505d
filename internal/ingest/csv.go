package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Aytaditya/salessense/internal/dataset"
)

// FromCSV parses comma-separated bytes into a Dataset. The first record is
// the header row; short records are padded with empty cells.
func FromCSV(r io.Reader) (*dataset.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file has no header row")
	}

	header := records[0]
	body := records[1:]

	columns := make([][]any, len(header))
	for c := range header {
		cells := make([]string, len(body))
		for r, record := range body {
			if c < len(record) {
				cells[r] = record[c]
			}
		}
		columns[c] = typeColumn(cells)
	}

	rows := make([][]any, len(body))
	for r := range body {
		row := make([]any, len(header))
		for c := range header {
			row[c] = columns[c][r]
		}
		rows[r] = row
	}

	return &dataset.Dataset{Columns: append([]string(nil), header...), Rows: rows}, nil
}
