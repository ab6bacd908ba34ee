package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/infrastructure/resilience"
	pkgerrors "ontology-backend/pkg/errors"
)

type recorded struct {
	path string
	body map[string]json.RawMessage
}

func newServer(t *testing.T, status int) (*httptest.Server, *[]recorded) {
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		calls = append(calls, recorded{path: r.URL.Path, body: body})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_UpsertGroupsByCollection(t *testing.T) {
	// Arrange
	srv, calls := newServer(t, http.StatusOK)
	client := NewClient(srv.URL+"/", time.Second, resilience.DefaultBreakerConfig("search"), zap.NewNop())

	// Act
	err := client.Upsert(context.Background(), []ports.SearchDocument{
		{ID: "a", Collection: "ontology", Title: "A"},
		{ID: "b", Collection: "ontology-app", Title: "B"},
		{ID: "c", Collection: "ontology", Title: "C"},
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, *calls, 2)
	assert.Equal(t, "/collections/ontology/upsert", (*calls)[0].path)
	assert.Equal(t, "/collections/ontology-app/upsert", (*calls)[1].path)

	var docs []ports.SearchDocument
	require.NoError(t, json.Unmarshal((*calls)[0].body["documents"], &docs))
	assert.Len(t, docs, 2)
}

func TestClient_Remove(t *testing.T) {
	srv, calls := newServer(t, http.StatusNoContent)
	client := NewClient(srv.URL, time.Second, resilience.DefaultBreakerConfig("search"), zap.NewNop())

	require.NoError(t, client.Remove(context.Background(), "ontology", []string{"a"}))
	require.NoError(t, client.Remove(context.Background(), "ontology", nil))

	require.Len(t, *calls, 1)
	assert.Equal(t, "/collections/ontology/delete", (*calls)[0].path)
	assert.JSONEq(t, `["a"]`, string((*calls)[0].body["ids"]))
}

func TestClient_ServerErrorOpensBreaker(t *testing.T) {
	// Arrange
	srv, calls := newServer(t, http.StatusInternalServerError)
	cfg := resilience.DefaultBreakerConfig("search")
	cfg.MinRequests = 2
	client := NewClient(srv.URL, time.Second, cfg, zap.NewNop())
	doc := []ports.SearchDocument{{ID: "a", Collection: "ontology"}}

	// Act
	first := client.Upsert(context.Background(), doc)
	second := client.Upsert(context.Background(), doc)
	third := client.Upsert(context.Background(), doc)

	// Assert
	assert.True(t, pkgerrors.IsType(first, pkgerrors.ErrorTypeExternal))
	assert.True(t, pkgerrors.IsType(second, pkgerrors.ErrorTypeExternal))
	assert.True(t, pkgerrors.IsType(third, pkgerrors.ErrorTypeUnavailable))
	assert.Len(t, *calls, 2)
}
