package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "ontology-backend/pkg/errors"
)

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{name: "defaults", query: "", wantLimit: 10, wantOffset: 0},
		{name: "explicit", query: "?limit=5&offset=20", wantLimit: 5, wantOffset: 20},
		{name: "limit too large", query: "?limit=101", wantErr: true},
		{name: "limit zero", query: "?limit=0", wantErr: true},
		{name: "negative offset", query: "?offset=-1", wantErr: true},
		{name: "not a number", query: "?limit=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/nodes/list"+tt.query, nil)

			limit, offset, err := ExtractLimitOffset(r, 10, 100)

			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestWindow(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4}, Window(items, 2, 2))
	assert.Equal(t, []int{5}, Window(items, 4, 10))
	assert.Empty(t, Window(items, 9, 2))
}

func TestRespondWithMeta_Envelope(t *testing.T) {
	// Arrange
	r := httptest.NewRequest(http.MethodGet, "/api/nodes/list", nil)
	r = r.WithContext(WithClientID(r.Context(), "client_1"))
	w := httptest.NewRecorder()

	// Act
	RespondWithMeta(w, http.StatusOK, []string{"a"}, NewMetadata(r).WithPage(Page{Total: 3, Offset: 0, Limit: 1}))

	// Assert
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	meta := body["metadata"].(map[string]any)
	assert.Equal(t, "client_1", meta["clientId"])
	assert.Equal(t, 3.0, meta["total"])
	assert.Equal(t, true, meta["hasMore"])
	assert.NotEmpty(t, meta["timestamp"])
}
