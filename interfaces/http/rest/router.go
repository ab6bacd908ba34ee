// Package rest exposes the ontology commands and queries over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ontology-backend/domain/config"
	"ontology-backend/domain/core/entities"
	"ontology-backend/interfaces/http/rest/handlers"
	"ontology-backend/interfaces/http/rest/middleware"
	"ontology-backend/pkg/auth"
	pkgerrors "ontology-backend/pkg/errors"
)

// Options configures the router.
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
	// HTTPMetrics records every request when set.
	HTTPMetrics middleware.HTTPRecorder
}

// Router creates and configures the HTTP router
type Router struct {
	commands     handlers.CommandSender
	queries      handlers.QueryAsker
	keys         *keyServices
	limiter      auth.RateLimiter
	tokens       middleware.TokenValidator
	cfg          *config.DomainConfig
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
	opts         Options
}

type keyServices struct {
	validator middleware.KeyValidator
	manager   handlers.KeyManager
}

// KeyService validates and manages API keys.
type KeyService interface {
	middleware.KeyValidator
	handlers.KeyManager
}

// NewRouter creates a new router instance
func NewRouter(
	cmds handlers.CommandSender,
	qs handlers.QueryAsker,
	keys KeyService,
	limiter auth.RateLimiter,
	tokens middleware.TokenValidator,
	cfg *config.DomainConfig,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
	opts Options,
) *Router {
	return &Router{
		commands:     cmds,
		queries:      qs,
		keys:         &keyServices{validator: keys, manager: keys},
		limiter:      limiter,
		tokens:       tokens,
		cfg:          cfg,
		errorHandler: errorHandler,
		logger:       logger,
		opts:         opts,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestContext)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.SecurityHeaders)
	if rt.opts.HTTPMetrics != nil {
		router.Use(middleware.Metrics(rt.opts.HTTPMetrics))
	}
	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.APIKeyHeader},
			ExposedHeaders:   []string{"X-Request-ID", "X-API-Version"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	if rt.opts.MetricsHandler != nil {
		router.Handle("/metrics", rt.opts.MetricsHandler)
	}

	search := handlers.NewSearchHandler(rt.commands, rt.errorHandler, rt.logger)
	router.Post("/triggerChroma", search.Trigger)

	docs := handlers.NewDocsHandler(rt.errorHandler)
	router.Get("/api/swagger", docs.Swagger)

	router.Route("/api/keys", func(r chi.Router) {
		r.Use(middleware.JWTAuth(rt.tokens, rt.errorHandler, rt.logger))
		keys := handlers.NewAPIKeyHandler(rt.keys.manager, rt.errorHandler, rt.logger)
		r.Get("/", keys.List)
		r.Post("/", keys.Generate)
		r.Delete("/", keys.Deactivate)
	})

	router.Route("/api/nodes", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(rt.keys.validator, rt.limiter, rt.errorHandler, rt.logger))
		rt.nodeRoutes(r)
	})

	router.Route("/api/ontology", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(rt.keys.validator, rt.limiter, rt.errorHandler, rt.logger))
		nodes := handlers.NewNodeHandler(rt.commands, rt.queries, rt.errorHandler, rt.cfg, rt.logger)
		r.Get("/export", nodes.ExportOntology)
	})

	return router
}

func (rt *Router) nodeRoutes(r chi.Router) {
	nodes := handlers.NewNodeHandler(rt.commands, rt.queries, rt.errorHandler, rt.cfg, rt.logger)
	props := handlers.NewPropertyHandler(rt.commands, rt.queries, rt.errorHandler, rt.cfg, rt.logger)
	links := handlers.NewLinkHandler(rt.commands, rt.queries, rt.errorHandler, rt.cfg, rt.logger)
	colls := handlers.NewCollectionHandler(rt.commands, rt.queries, rt.errorHandler, rt.cfg, rt.logger)

	r.Post("/", nodes.CreateNode)
	r.Get("/list", nodes.ListNodes)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", nodes.GetNode)
		r.Patch("/", nodes.UpdateNode)
		r.Delete("/", nodes.DeleteNode)
		r.Post("/clone", nodes.CloneNode)
		r.Get("/changes", nodes.GetChanges)

		r.Get("/inheritance", props.GetInheritance)
		r.Patch("/inheritance", props.UpdateInheritance)
		r.Post("/inheritance/regenerate", props.RegenerateInheritance)

		for _, rel := range []entities.Relation{
			entities.RelationSpecializations,
			entities.RelationGeneralizations,
			entities.RelationParts,
			entities.RelationIsPartOf,
		} {
			path := "/" + string(rel)
			r.Get(path, links.List(rel))
			r.Post(path, links.Add(rel))
			r.Delete(path, links.Remove(rel))
			r.Put(path, links.Rearrange(rel))
		}
		r.Post("/specializations/transfer", links.TransferSpecializations)

		r.Route("/collections/{relationType}", func(r chi.Router) {
			r.Get("/", colls.List)
			r.Post("/", colls.Create)
			r.Put("/", colls.Put)
			r.Delete("/", colls.Delete)
			r.Patch("/", colls.Rename)
		})

		r.Get("/properties", props.GetProperties)
		r.Post("/properties", props.AddProperty)
		r.Patch("/properties", props.UpdateProperties)
		r.Route("/properties/{name}", func(r chi.Router) {
			r.Get("/", props.GetProperty)
			r.Put("/", props.RenameProperty)
			r.Delete("/", props.DeleteProperty)
			r.Get("/inheritance", props.GetPropertyInheritance)
			r.Patch("/inheritance", props.UpdatePropertyInheritance)
		})
	})
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
