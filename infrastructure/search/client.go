// Package search pushes node documents to the external search index over
// HTTP.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/infrastructure/resilience"
	pkgerrors "ontology-backend/pkg/errors"
)

const serviceName = "search-index"

// Client implements ports.SearchIndexer against a collection based index
// API:
//
//	POST {base}/collections/{collection}/upsert  {"documents": [...]}
//	POST {base}/collections/{collection}/delete  {"ids": [...]}
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.SearchIndexer = (*Client)(nil)

// NewClient creates a search index client.
func NewClient(baseURL string, timeout time.Duration, breaker resilience.BreakerConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cb:      resilience.NewBreaker(breaker, logger),
		logger:  logger,
	}
}

type upsertRequest struct {
	Documents []ports.SearchDocument `json:"documents"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// Upsert groups docs by collection and sends one request per collection.
func (c *Client) Upsert(ctx context.Context, docs []ports.SearchDocument) error {
	byCollection := map[string][]ports.SearchDocument{}
	for _, d := range docs {
		byCollection[d.Collection] = append(byCollection[d.Collection], d)
	}
	names := make([]string, 0, len(byCollection))
	for name := range byCollection {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := c.post(ctx, name, "upsert", upsertRequest{Documents: byCollection[name]}); err != nil {
			return err
		}
	}
	c.logger.Debug("Search documents upserted", zap.Int("count", len(docs)), zap.Int("collections", len(names)))
	return nil
}

// Remove deletes ids from collection.
func (c *Client) Remove(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.post(ctx, collection, "delete", deleteRequest{IDs: ids})
}

func (c *Client) post(ctx context.Context, collection, action string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", action, err)
	}
	endpoint := fmt.Sprintf("%s/collections/%s/%s", c.baseURL, url.PathEscape(collection), action)

	_, err = resilience.Call(c.cb, serviceName, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, pkgerrors.NewExternalError(serviceName, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return struct{}{}, pkgerrors.NewExternalError(serviceName,
				fmt.Errorf("%s %s: %d %s", action, collection, resp.StatusCode, strings.TrimSpace(string(msg))))
		}
		return struct{}{}, nil
	})
	if err != nil {
		c.logger.Warn("Search index request failed",
			zap.String("collection", collection),
			zap.String("action", action),
			zap.Error(err),
		)
	}
	return err
}
