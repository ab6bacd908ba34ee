package entities

import (
	"fmt"
	"strings"
	"time"
)

// APIKey grants a client access to the ontology API. Only the hash of the
// key is ever stored.
type APIKey struct {
	KeyHash          string    `json:"-" dynamodbav:"keyHash"`
	UserID           string    `json:"userId" dynamodbav:"userId"`
	Uname            string    `json:"uname" dynamodbav:"uname"`
	ClientID         string    `json:"clientId" dynamodbav:"clientId"`
	Description      string    `json:"description" dynamodbav:"description"`
	AllowedEndpoints []string  `json:"allowedEndpoints" dynamodbav:"allowedEndpoints"`
	IsActive         bool      `json:"isActive" dynamodbav:"isActive"`
	CreatedAt        time.Time `json:"createdAt" dynamodbav:"createdAt"`
	LastUsed         time.Time `json:"lastUsed,omitempty" dynamodbav:"lastUsed,omitempty"`
}

// NewAPIKey builds an active key record for an already hashed key.
func NewAPIKey(keyHash, userID, uname, description string, allowedEndpoints []string, now time.Time) *APIKey {
	if strings.TrimSpace(description) == "" {
		description = "API Key generated on " + now.Format("1/2/2006")
	}
	if allowedEndpoints == nil {
		allowedEndpoints = []string{}
	}
	return &APIKey{
		KeyHash:          keyHash,
		UserID:           userID,
		Uname:            uname,
		ClientID:         fmt.Sprintf("client_%d", now.UnixMilli()),
		Description:      description,
		AllowedEndpoints: allowedEndpoints,
		IsActive:         true,
		CreatedAt:        now,
		LastUsed:         now,
	}
}

// Allows reports whether the key may call endpoint. An empty allow list
// permits every endpoint.
func (k *APIKey) Allows(endpoint string) bool {
	if len(k.AllowedEndpoints) == 0 {
		return true
	}
	for _, allowed := range k.AllowedEndpoints {
		if allowed == endpoint || (strings.HasSuffix(allowed, "*") && strings.HasPrefix(endpoint, strings.TrimSuffix(allowed, "*"))) {
			return true
		}
	}
	return false
}

// Deactivate revokes the key.
func (k *APIKey) Deactivate() {
	k.IsActive = false
}
