package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrorBody is the error member of the response envelope
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	Success  bool           `json:"success"`
	Error    ErrorBody      `json:"error"`
	Metadata map[string]any `json:"metadata"`
}

// ErrorHandler handles errors and sends appropriate HTTP responses
type ErrorHandler struct {
	logger        *zap.Logger
	debug         bool
	defaultStatus int
	clientID      func(*http.Request) string
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger:        logger,
		debug:         debug,
		defaultStatus: http.StatusInternalServerError,
		clientID:      func(*http.Request) string { return "" },
	}
}

// WithClientIDResolver sets how the client ID is read from a request for
// the response metadata.
func (h *ErrorHandler) WithClientIDResolver(fn func(*http.Request) string) *ErrorHandler {
	if fn != nil {
		h.clientID = fn
	}
	return h
}

// Handle processes an error and sends an HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	var status int
	var body ErrorBody

	if appErr := GetAppError(err); appErr != nil {
		status = appErr.HTTPStatus
		if status == 0 {
			status = h.defaultStatus
		}
		code := appErr.Code
		if code == "" {
			code = string(appErr.Type)
		}
		body = ErrorBody{Code: code, Message: appErr.Message, Details: appErr.Details}

		h.logError(r, appErr, status)

		if h.debug && appErr.StackTrace != "" {
			details := make(map[string]interface{}, len(body.Details)+1)
			for k, v := range body.Details {
				details[k] = v
			}
			details["stack_trace"] = appErr.StackTrace
			body.Details = details
		}
	} else {
		status = h.defaultStatus
		body = ErrorBody{Code: CodeInternal, Message: "An internal error occurred"}

		report := Capture(err)
		h.logger.Error("Unhandled error",
			zap.Error(err),
			zap.String("name", report.Name),
			zap.String("stack", report.Stack),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Int("status", status),
		)

		if h.debug {
			body.Message = err.Error()
		}
	}

	h.sendJSON(w, r, status, body)
}

// HandleStatus sends an error response with a specific status code
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.logger.Warn("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("message", message),
	)
	h.sendJSON(w, r, status, ErrorBody{Code: code, Message: message})
}

func (h *ErrorHandler) logError(r *http.Request, err *AppError, status int) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", r.Header.Get("X-Request-ID")),
	}
	if err.Code != "" {
		fields = append(fields, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	if err.Details != nil {
		fields = append(fields, zap.Any("details", err.Details))
	}

	switch {
	case status >= 500:
		fields = append(fields, zap.String("stack", err.StackTrace))
		h.logger.Error(err.Message, fields...)
	case status >= 400:
		h.logger.Warn(err.Message, fields...)
	default:
		h.logger.Info(err.Message, fields...)
	}
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, r *http.Request, status int, body ErrorBody) {
	response := ErrorResponse{
		Success: false,
		Error:   body,
		Metadata: map[string]any{
			"clientId":  h.clientID(r),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode error response",
			zap.Error(err),
			zap.Any("data", response),
		)
	}
}

// Middleware returns an HTTP middleware that handles panics
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
