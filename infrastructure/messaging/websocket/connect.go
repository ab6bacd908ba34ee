package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// ErrMissingToken is returned when a connect request carries no token.
var ErrMissingToken = errors.New("missing token")

// TokenVerifier resolves an access token to a user ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// SupabaseVerifier checks tokens against Supabase auth.
type SupabaseVerifier struct {
	client *supabase.Client
}

// NewSupabaseVerifier creates a verifier for the project at url. key should
// be the service role key.
func NewSupabaseVerifier(url, key string) (*SupabaseVerifier, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, err
	}
	return &SupabaseVerifier{client: client}, nil
}

// Verify implements TokenVerifier.
func (v *SupabaseVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	user, err := v.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return "", err
	}
	return user.ID.String(), nil
}

// ConnectHandler admits websocket connections and forgets them on
// disconnect.
type ConnectHandler struct {
	verifier TokenVerifier
	store    *ConnectionStore
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewConnectHandler creates a handler whose records live for ttl.
func NewConnectHandler(verifier TokenVerifier, store *ConnectionStore, ttl time.Duration, logger *zap.Logger) *ConnectHandler {
	return &ConnectHandler{verifier: verifier, store: store, ttl: ttl, now: time.Now, logger: logger}
}

// Connect handles the $connect route. The token comes from the token query
// parameter or a bearer Authorization header.
func (h *ConnectHandler) Connect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	token := req.QueryStringParameters["token"]
	if token == "" {
		token = bearer(req.Headers)
	}
	if token == "" {
		h.logger.Warn("Connection request missing token", zap.String("connectionId", req.RequestContext.ConnectionID))
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized}, nil
	}

	userID, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.Warn("Invalid websocket token", zap.Error(err))
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized}, nil
	}

	now := h.now()
	conn := Connection{
		ConnectionID: req.RequestContext.ConnectionID,
		UserID:       userID,
		Endpoint:     req.RequestContext.DomainName + "/" + req.RequestContext.Stage,
		ConnectedAt:  now,
		ExpiresAt:    now.Add(h.ttl),
	}
	if err := h.store.Save(ctx, conn); err != nil {
		h.logger.Error("Failed to save connection", zap.String("connectionId", conn.ConnectionID), zap.Error(err))
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}

	h.logger.Info("Websocket connected",
		zap.String("connectionId", conn.ConnectionID),
		zap.String("userId", userID),
	)
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

// Disconnect handles the $disconnect route.
func (h *ConnectHandler) Disconnect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := h.store.Remove(ctx, req.RequestContext.ConnectionID); err != nil {
		h.logger.Error("Failed to remove connection", zap.String("connectionId", req.RequestContext.ConnectionID), zap.Error(err))
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

func bearer(headers map[string]string) string {
	for _, name := range []string{"Authorization", "authorization"} {
		if v := headers[name]; len(v) > 7 && v[:7] == "Bearer " {
			return v[7:]
		}
	}
	return ""
}
