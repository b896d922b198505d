package api

import (
	"net/http"

	"github.com/Aytaditya/salessense/internal/dataset"
)

// handleCSVList echoes an uploaded spreadsheet back as JSON rows keyed by
// the original column headers. Non-finite numbers become nulls so the
// payload is always valid JSON.
func handleCSVList(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	ds, ok := datasetFromUpload(w, r)
	if !ok {
		return
	}

	rows := make([]map[string]any, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		entry := make(map[string]any, len(ds.Columns))
		for i, name := range ds.Columns {
			var value any
			if i < len(row) {
				value = dataset.ScrubValue(row[i])
			}
			entry[name] = value
		}
		rows = append(rows, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}
