package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/foliodev/folio/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI document. The document is static, so it
// is rendered once on first request.
type OpenAPIHandler struct {
	baseURL string
	logger  *slog.Logger

	once sync.Once
	body []byte
	err  error
}

// NewOpenAPIHandler creates a new OpenAPIHandler. baseURL is advertised as
// the server URL and may be empty.
func NewOpenAPIHandler(baseURL string, logger *slog.Logger) *OpenAPIHandler {
	return &OpenAPIHandler{baseURL: baseURL, logger: logger}
}

func (h *OpenAPIHandler) render() ([]byte, error) {
	h.once.Do(func() {
		doc, err := openapi.Generate(h.baseURL)
		if err != nil {
			h.err = err
			return
		}
		h.body, h.err = json.MarshalIndent(doc, "", "  ")
	})
	return h.body, h.err
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	body, err := h.render()
	if err != nil {
		h.logger.Error("openapi generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate OpenAPI document")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
