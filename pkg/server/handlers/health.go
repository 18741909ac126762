package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	matchmaker "github.com/TambeNeel/clinical-trial-matchmaker"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	matchmaker matchmaker.Matchmaker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(m matchmaker.Matchmaker) *HealthHandler {
	return &HealthHandler{
		matchmaker: m,
	}
}

// HealthCheck handles GET /healthz - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "matchmaker",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "matchmaker",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready - the service is ready once a corpus
// and its embeddings are loaded in memory.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	response := gin.H{
		"status":    "ready",
		"service":   "matchmaker",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.matchmaker == nil {
		response["status"] = "not_ready"
		response["error"] = "matchmaker client not initialized"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	status := h.matchmaker.Status()
	response["cache"] = status

	if !status.Ready() {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
