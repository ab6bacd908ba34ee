package common

import (
	"encoding/json"
	"net/http"
	"time"
)

// APIResponse is the envelope of every ontology API response
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata accompanies every response. List endpoints add paging fields.
type Metadata struct {
	ClientID  string `json:"clientId,omitempty"`
	Timestamp string `json:"timestamp"`
	Total     *int   `json:"total,omitempty"`
	Offset    *int   `json:"offset,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
	HasMore   *bool  `json:"hasMore,omitempty"`
}

// NewMetadata stamps metadata for the request.
func NewMetadata(r *http.Request) Metadata {
	return Metadata{
		ClientID:  GetClientID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// WithPage adds paging information.
func (m Metadata) WithPage(page Page) Metadata {
	total, offset, limit, more := page.Total, page.Offset, page.Limit, page.HasMore()
	m.Total, m.Offset, m.Limit, m.HasMore = &total, &offset, &limit, &more
	return m
}

// RespondJSON sends a JSON response in the standard envelope
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	RespondWithMeta(w, status, data, NewMetadata(r))
}

// RespondWithMeta sends a response with explicit metadata
func RespondWithMeta(w http.ResponseWriter, status int, data interface{}, meta Metadata) {
	response := APIResponse{
		Success:  status >= 200 && status < 300,
		Data:     data,
		Metadata: meta,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// ExtractRequestID extracts the request ID from the request context
func ExtractRequestID(r *http.Request) string {
	if id, ok := GetRequestID(r.Context()); ok && id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Amzn-Trace-Id"); id != "" {
		return id
	}
	return ""
}
