package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Aytaditya/salessense/internal/dataset"
	"github.com/Aytaditya/salessense/internal/ingest"
	"github.com/Aytaditya/salessense/internal/observability"
)

// maxUploadBytes bounds the in-memory portion of a multipart upload.
const maxUploadBytes = 32 << 20

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	ds, ok := datasetFromUpload(w, r)
	if !ok {
		return
	}

	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "form field 'question' is required", false, nil)
		return
	}

	bundle := deps.SQLPipeline.Ask(r.Context(), ds, question)
	writeJSON(w, http.StatusOK, bundle)
}

func handleGraphAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.GraphPipeline == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "GRAPH_DISABLED", "graph querying is not configured", false, nil)
		return
	}

	var request struct {
		Question string `json:"question"`
	}
	if err := decodeJSONBody(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", err.Error(), false, nil)
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "field 'question' is required", false, nil)
		return
	}

	bundle := deps.GraphPipeline.Ask(r.Context(), nil, request.Question)
	writeJSON(w, http.StatusOK, bundle)
}

// datasetFromUpload reads the multipart 'file' field and parses it into a
// dataset. It writes the error response itself when parsing fails.
func datasetFromUpload(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MULTIPART", err.Error(), false, nil)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "FILE_REQUIRED", "form field 'file' is required", false, nil)
		return nil, false
	}
	defer func() { _ = file.Close() }()

	ds, err := parseUpload(header, file)
	if err != nil {
		status := http.StatusUnprocessableEntity
		code := "INGESTION_FAILED"
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
			code = "UNSUPPORTED_FORMAT"
		}
		writeError(r.Context(), w, status, code, err.Error(), false, map[string]any{
			"filename": header.Filename,
		})
		return nil, false
	}

	observability.ObserveUpload(strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), "."))
	return ds, true
}

func parseUpload(header *multipart.FileHeader, file multipart.File) (*dataset.Dataset, error) {
	return ingest.FromUpload(header.Filename, file)
}
