// ABOUTME: JSON error responses written by middleware
// ABOUTME: Same ErrorResponse shape the handlers use, so clients decode one format

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

func writeJSONError(w http.ResponseWriter, message, details string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   message,
		Details: details,
		Code:    code,
	})
}
