package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"salestats/internal/core"
	"salestats/internal/middleware/trace"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors to HTTP statuses. Malformed input is the
// caller's fault; everything else is reported as an opaque server failure.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Error(),
			"field": vErr.Field,
		})
		return
	}

	requestID := trace.GetRequestID(r.Context())
	var rErr *core.ReportError
	if errors.As(err, &rErr) {
		slog.ErrorContext(r.Context(), "Report section failed",
			"request_id", requestID, "section", rErr.Section, "error", rErr.Err)
	} else {
		slog.ErrorContext(r.Context(), "Report query failed",
			"request_id", requestID, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal query failure",
	})
}

// parsePositiveInt reads an optional positive integer query parameter.
// Absent values return def; non-numeric values are a validation error;
// zero and negatives fall back to def.
func parsePositiveInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &core.ValidationError{Field: name, Reason: "want an integer"}
	}
	if n < 1 {
		return def, nil
	}
	return n, nil
}
