// Package server exposes the temporal reasoning engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundprediction/chronicle"
	"github.com/soundprediction/chronicle/pkg/config"
	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/server/handlers"
	"github.com/soundprediction/chronicle/pkg/types"
)

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	router   *gin.Engine
	client   chronicle.Chronicle
	registry *resolver.Static
	server   *http.Server
}

// New creates a new server instance. The registry is optional; when set,
// the server exposes entity registration.
func New(cfg *config.Config, client chronicle.Chronicle, registry *resolver.Static) *Server {
	return &Server{
		config:   cfg,
		client:   client,
		registry: registry,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router returns the underlying gin engine, exposed for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.client)
	factsHandler := handlers.NewFactsHandler(s.client)
	relationsHandler := handlers.NewRelationsHandler(s.client)
	contextHandler := handlers.NewContextHandler(s.client)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/healthcheck", healthHandler.HealthCheck) // Legacy endpoint
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck) // Kubernetes liveness probe
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		if s.registry != nil {
			entitiesHandler := handlers.NewEntitiesHandler(s.registry)
			v1.POST("/entity", entitiesHandler.RegisterEntity)
		}

		v1.POST("/temporal_fact", factsHandler.UpsertFact)
		v1.POST("/events_in_timeframe", factsHandler.EventsInTimeframe)
		v1.GET("/temporal_sequence/:scope", factsHandler.TemporalSequence)
		v1.DELETE("/scope/:scope", factsHandler.DeleteScope)

		v1.POST("/create_temporal_relation", relationsHandler.CreateRelation)
		v1.GET("/temporal_relation/:fact_id", relationsHandler.FindRelated)
		v1.POST("/infer_relations/:scope", relationsHandler.InferRelations)
		v1.POST("/recompute_order/:scope", relationsHandler.RecomputeOrder)

		v1.GET("/timeline/:scope", contextHandler.Timeline)
		v1.GET("/temporal_context/:scope", contextHandler.TemporalContext)
		v1.GET("/segments/:scope", contextHandler.Segments)
	}

	// Legacy routes for compatibility with the original tool's server
	s.router.GET("/timeline/:scope", contextHandler.Timeline)
	s.router.GET("/temporal_context/:scope", contextHandler.TemporalContext)
	s.router.POST("/events_in_timeframe", factsHandler.EventsInTimeframe)
	s.router.GET("/temporal_sequence/:scope", factsHandler.TemporalSequence)
	s.router.GET("/temporal_relation/:fact_id", relationsHandler.FindRelated)
	s.router.POST("/create_temporal_relation", relationsHandler.CreateRelation)
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware tags requests for telemetry
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = types.WithRequestID(ctx, requestID)

		if scope := c.Param("scope"); scope != "" {
			ctx = types.WithScopeID(ctx, scope)
		}

		ctx = types.WithRequestSource(ctx, "http")

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
