package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ontology-backend/application/services"
	"ontology-backend/domain/core/entities"
	"ontology-backend/pkg/common"
	pkgerrors "ontology-backend/pkg/errors"
)

// KeyManager issues and revokes API keys.
type KeyManager interface {
	Generate(ctx context.Context, req services.GenerateKeyRequest) (*services.GeneratedKey, error)
	List(ctx context.Context, userID string) ([]*entities.APIKey, error)
	Deactivate(ctx context.Context, plain, userID string) error
}

// APIKeyHandler serves /api/keys for JWT-authenticated users.
type APIKeyHandler struct {
	keys   KeyManager
	errs   ErrorResponder
	logger *zap.Logger
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(keys KeyManager, errs ErrorResponder, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{keys: keys, errs: errs, logger: logger}
}

type generateKeyBody struct {
	Description      string   `json:"description"`
	AllowedEndpoints []string `json:"allowedEndpoints"`
	Uname            string   `json:"uname"`
}

func userID(r *http.Request) (string, error) {
	id, ok := common.GetUserID(r.Context())
	if !ok {
		return "", pkgerrors.NewUnauthorizedError("Unauthorized")
	}
	return id, nil
}

// Generate handles POST /api/keys. The plaintext key is only ever returned
// here.
func (h *APIKeyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var body generateKeyBody
	if err := decode(r, &body); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	name := uname(r)
	if name == "" {
		name = body.Uname
	}

	key, err := h.keys.Generate(r.Context(), services.GenerateKeyRequest{
		UserID:           uid,
		Uname:            name,
		Description:      body.Description,
		AllowedEndpoints: body.AllowedEndpoints,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusCreated, key)
}

// List handles GET /api/keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	keys, err := h.keys.List(r.Context(), uid)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, keys)
}

// Deactivate handles DELETE /api/keys
func (h *APIKeyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var body struct {
		APIKey string `json:"apiKey"`
	}
	if err := decode(r, &body); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.keys.Deactivate(r.Context(), body.APIKey, uid); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, map[string]string{"message": "API key deactivated successfully"})
}
