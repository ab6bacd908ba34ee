// Package handlers translates HTTP requests into commands and queries.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	cmdbus "ontology-backend/application/commands/bus"
	querybus "ontology-backend/application/queries/bus"
	"ontology-backend/domain/config"
	"ontology-backend/pkg/common"
	pkgerrors "ontology-backend/pkg/errors"
)

// CommandSender dispatches commands.
type CommandSender interface {
	Send(ctx context.Context, cmd cmdbus.Command) error
}

// QueryAsker dispatches queries.
type QueryAsker interface {
	Ask(ctx context.Context, query querybus.Query) (interface{}, error)
}

// ErrorResponder renders errors in the response envelope.
type ErrorResponder interface {
	Handle(w http.ResponseWriter, r *http.Request, err error)
}

// base carries what every resource handler needs.
type base struct {
	commands CommandSender
	queries  QueryAsker
	errs     ErrorResponder
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.Validation("Invalid request body: %s", err.Error())
	}
	return nil
}

// uname is the acting user resolved by the auth middleware.
func uname(r *http.Request) string {
	u, _ := common.GetUname(r.Context())
	return u
}

func nodeID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func (b *base) send(w http.ResponseWriter, r *http.Request, status int, cmd cmdbus.Command, data any) {
	if err := b.commands.Send(r.Context(), cmd); err != nil {
		b.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, status, data)
}

func (b *base) ask(w http.ResponseWriter, r *http.Request, q querybus.Query) {
	result, err := b.queries.Ask(r.Context(), q)
	if err != nil {
		b.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, result)
}

type mutationResult struct {
	NodeID  string `json:"nodeId"`
	Message string `json:"message"`
}

func done(id, message string) mutationResult {
	return mutationResult{NodeID: id, Message: message}
}
