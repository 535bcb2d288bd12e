package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/queued/queued/internal/api/handler"
	"github.com/queued/queued/internal/api/middleware"
	"github.com/queued/queued/internal/config"
	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
)

// RouterConfig holds dependencies for router creation
type RouterConfig struct {
	Logger     *logger.Logger
	Client     *mongo.Client
	Controller *ControllerContainer
	ClaimCfg   config.ClaimDefaultsConfig
	Version    string
	BuildTime  string
	CORSConfig middleware.CORSConfig
}

// ControllerContainer holds the core package's controllers.
type ControllerContainer struct {
	Queue   *core.QueueController
	Message *core.MessageController
	Claim   *core.ClaimController
}

// NewRouter creates and configures the Chi router
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middlewares (order matters!)
	r.Use(middleware.RequestID)            // 1. Request ID first
	r.Use(middleware.CORS(cfg.CORSConfig)) // 2. CORS early
	r.Use(middleware.Recovery(cfg.Logger)) // 3. Recovery before logging
	r.Use(middleware.Logger(cfg.Logger))   // 4. Logging
	r.Use(middleware.ProjectContext)       // 5. Project/client-uuid extraction

	// Health check handlers (no project required)
	healthHandler := handler.NewHealthHandler(cfg.Client, cfg.Version, cfg.BuildTime)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/version", healthHandler.Version)

	queueHandler := handler.NewQueueHandler(cfg.Controller.Queue)
	messageHandler := handler.NewMessageHandler(cfg.Controller.Message, cfg.ClaimCfg.DefaultTTLSeconds)
	claimHandler := handler.NewClaimHandler(cfg.Controller.Claim, cfg.ClaimCfg)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/queues", func(r chi.Router) {
			r.Get("/", queueHandler.List)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", queueHandler.Get)
				r.Put("/", queueHandler.Upsert)
				r.Delete("/", queueHandler.Delete)
				r.Get("/stats", queueHandler.Stats)

				r.Route("/messages", func(r chi.Router) {
					r.Get("/", messageHandler.List)
					r.Post("/", messageHandler.Post)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", messageHandler.Get)
						r.Delete("/", messageHandler.Delete)
					})
				})

				r.Route("/claims", func(r chi.Router) {
					r.Post("/", claimHandler.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", claimHandler.Get)
						r.Patch("/", claimHandler.Update)
						r.Delete("/", claimHandler.Delete)
					})
				})
			})
		})
	})

	return r
}
