package handlers

import (
	_ "embed"
	"net/http"

	"gopkg.in/yaml.v3"

	"ontology-backend/pkg/common"
	pkgerrors "ontology-backend/pkg/errors"
)

//go:embed swagger.yaml
var swaggerYAML []byte

// DocsHandler serves the OpenAPI document.
type DocsHandler struct {
	errs ErrorResponder
	doc  map[string]any
	err  error
}

// NewDocsHandler parses the embedded document once.
func NewDocsHandler(errs ErrorResponder) *DocsHandler {
	h := &DocsHandler{errs: errs}
	h.err = yaml.Unmarshal(swaggerYAML, &h.doc)
	return h
}

// Swagger handles GET /api/swagger. ?format=yaml returns the raw document.
func (h *DocsHandler) Swagger(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(swaggerYAML)
		return
	}
	if h.err != nil {
		h.errs.Handle(w, r, pkgerrors.NewInternalError("API document is unavailable").WithCause(h.err))
		return
	}
	common.RespondJSON(w, r, http.StatusOK, h.doc)
}
