package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	matchmaker "github.com/TambeNeel/clinical-trial-matchmaker"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/alert"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/config"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/server/handlers"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/telemetry"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	router     *gin.Engine
	matchmaker matchmaker.Matchmaker
	server     *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, client matchmaker.Matchmaker) *Server {
	return &Server{
		config:     cfg,
		matchmaker: client,
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

// Router exposes the configured engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.matchmaker)
	matchHandler := handlers.NewMatchHandler(s.matchmaker)
	adminHandler := handlers.NewAdminHandler(s.matchmaker, alert.FromConfig(s.config.Alert))
	patientsHandler := handlers.NewPatientsHandler(s.matchmaker)

	// Health endpoints
	s.router.GET("/healthz", healthHandler.HealthCheck)
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)

	// Corpus lifecycle endpoints
	s.router.GET("/status", adminHandler.Status)
	s.router.POST("/refresh", adminHandler.Refresh)
	s.router.POST("/rebuild", adminHandler.Rebuild)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/match", matchHandler.Match)
		v1.POST("/match/:patient_id", matchHandler.MatchStored)
		v1.POST("/export", matchHandler.ExportCSV)
		v1.GET("/patients", patientsHandler.List)
		v1.GET("/patients/:patient_id", patientsHandler.Get)
		v1.GET("/status", adminHandler.Status)
		v1.POST("/refresh", adminHandler.Refresh)
		v1.POST("/rebuild", adminHandler.Rebuild)
	}
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

// contextMiddleware tags each request context for telemetry
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = context.WithValue(ctx, telemetry.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, telemetry.ContextKeyRoute, c.FullPath())

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
