package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coindeck/coindeck/internal/contract"
)

// routePath translates a contract route into the mux pattern handlers mount
// on the /api subrouter.
func routePath(r contract.Route) string {
	return contract.MuxPath(strings.TrimPrefix(r.Path, "/api"))
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps an error to its failure response: validation
// errors carry the first offending field, everything else collapses to a
// generic 500 with no detail leaked.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *contract.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Message: "Internal server error"})
}

// writeUnauthorized writes the standard 401 body
func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, contract.ErrorResponse{Message: "Unauthorized"})
}
