package services

import (
	"context"

	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/domain/core/entities"
	pkgerrors "ontology-backend/pkg/errors"
	"ontology-backend/pkg/auth"
	"ontology-backend/pkg/utils"
)

// GenerateKeyRequest describes a new API key.
type GenerateKeyRequest struct {
	UserID           string   `json:"userId" validate:"required"`
	Uname            string   `json:"uname" validate:"required"`
	Description      string   `json:"description" validate:"max=500"`
	AllowedEndpoints []string `json:"allowedEndpoints" validate:"max=100,dive,min=1"`
}

// GeneratedKey is returned exactly once, when a key is created.
type GeneratedKey struct {
	APIKey string          `json:"apiKey"`
	Key    *entities.APIKey `json:"keyData"`
}

// APIKeyService manages the keys clients use to call the ontology API.
type APIKeyService struct {
	keys   ports.APIKeyRepository
	clock  utils.Clock
	logger *zap.Logger
}

// NewAPIKeyService creates a new API key service.
func NewAPIKeyService(keys ports.APIKeyRepository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{keys: keys, clock: utils.SystemClock, logger: logger}
}

// WithClock overrides the time source.
func (s *APIKeyService) WithClock(clock utils.Clock) *APIKeyService {
	s.clock = clock
	return s
}

// Generate creates and stores a key. Only its hash is persisted.
func (s *APIKeyService) Generate(ctx context.Context, req GenerateKeyRequest) (*GeneratedKey, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	plain, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to generate API key").WithCause(err)
	}
	key := entities.NewAPIKey(auth.HashAPIKey(plain), req.UserID, req.Uname, req.Description, req.AllowedEndpoints, s.clock().UTC())
	if err := s.keys.Save(ctx, key); err != nil {
		return nil, err
	}
	s.logger.Info("API key generated",
		zap.String("userId", req.UserID),
		zap.String("clientId", key.ClientID),
	)
	return &GeneratedKey{APIKey: plain, Key: key}, nil
}

// List returns the keys of userID.
func (s *APIKeyService) List(ctx context.Context, userID string) ([]*entities.APIKey, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userId is required")
	}
	return s.keys.ListByUser(ctx, userID)
}

// Deactivate revokes a key owned by userID.
func (s *APIKeyService) Deactivate(ctx context.Context, plain, userID string) error {
	if plain == "" {
		return pkgerrors.NewValidationError("apiKey is required")
	}
	key, err := s.keys.GetByHash(ctx, auth.HashAPIKey(plain))
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return pkgerrors.NewNotFoundError("API key")
		}
		return err
	}
	if key.UserID != userID {
		return pkgerrors.NewNotFoundError("API key")
	}
	key.Deactivate()
	if err := s.keys.Save(ctx, key); err != nil {
		return err
	}
	s.logger.Info("API key deactivated", zap.String("userId", userID), zap.String("clientId", key.ClientID))
	return nil
}

// Validate checks that plain is an active key allowed to call endpoint and
// records its use.
func (s *APIKeyService) Validate(ctx context.Context, plain, endpoint string) (*entities.APIKey, error) {
	if plain == "" {
		return nil, invalidKey("API key is required")
	}
	key, err := s.keys.GetByHash(ctx, auth.HashAPIKey(plain))
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, invalidKey("Invalid API key")
		}
		return nil, err
	}
	if !key.IsActive {
		return nil, invalidKey("API key is inactive")
	}
	if endpoint != "" && !key.Allows(endpoint) {
		return nil, invalidKey("API key is not allowed to access this endpoint")
	}

	key.LastUsed = s.clock().UTC()
	if err := s.keys.Save(ctx, key); err != nil {
		s.logger.Warn("Failed to record API key use", zap.String("clientId", key.ClientID), zap.Error(err))
	}
	return key, nil
}

func invalidKey(message string) *pkgerrors.AppError {
	return pkgerrors.NewUnauthorizedError(message).WithCode(pkgerrors.CodeInvalidAPIKey)
}
