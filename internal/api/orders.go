package api

import (
	"net/http"
	"strings"
)

func handleParseOrder(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.OrderParser == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ORDERS_DISABLED", "order parsing is not configured", false, nil)
		return
	}

	var request struct {
		Text string `json:"text"`
	}
	if err := decodeJSONBody(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", err.Error(), false, nil)
		return
	}
	if strings.TrimSpace(request.Text) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TEXT_REQUIRED", "field 'text' is required", false, nil)
		return
	}

	order, err := deps.OrderParser.Parse(r.Context(), request.Text)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "ORDER_PARSE_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
