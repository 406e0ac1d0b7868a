// ABOUTME: Serves the embedded OpenAPI document as YAML or JSON
// ABOUTME: The JSON form is converted from the YAML source once, on first request

package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openapiSpec []byte

var (
	openapiJSONOnce sync.Once
	openapiJSON     []byte
	openapiJSONErr  error
)

// openapiDocumentJSON converts the YAML document to JSON
func openapiDocumentJSON() ([]byte, error) {
	openapiJSONOnce.Do(func() {
		var doc map[string]any
		if err := yaml.Unmarshal(openapiSpec, &doc); err != nil {
			openapiJSONErr = fmt.Errorf("parsing openapi.yaml: %w", err)
			return
		}
		openapiJSON, openapiJSONErr = json.Marshal(doc)
	})
	return openapiJSON, openapiJSONErr
}

// OpenAPISpec serves the embedded OpenAPI specification.
func (h *Handler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(openapiSpec)
}

// OpenAPISpecJSON serves the same document as JSON for tools that do not read YAML.
func (h *Handler) OpenAPISpecJSON(w http.ResponseWriter, r *http.Request) {
	data, err := openapiDocumentJSON()
	if err != nil {
		slog.Error("Failed to convert OpenAPI document", "error", err)
		h.writeError(w, "OpenAPI document unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
