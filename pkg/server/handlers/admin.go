package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	matchmaker "github.com/TambeNeel/clinical-trial-matchmaker"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/alert"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/corpus"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/registry"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/server/dto"
)

// AdminHandler handles corpus lifecycle requests
type AdminHandler struct {
	matchmaker matchmaker.Matchmaker
	alerter    alert.Alerter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(m matchmaker.Matchmaker, alerter alert.Alerter) *AdminHandler {
	if alerter == nil {
		alerter = &alert.NoOpAlerter{}
	}
	return &AdminHandler{
		matchmaker: m,
		alerter:    alerter,
	}
}

// Refresh handles POST /refresh - fetch a fresh corpus from the registry
// and adopt it. The request body is optional; the preset defaults to quick.
func (h *AdminHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
	}
	if preset := c.Query("preset"); preset != "" {
		req.Preset = preset
	}

	if err := h.matchmaker.RefreshCorpus(c.Request.Context(), req.Preset); err != nil {
		_ = h.alerter.Alert("corpus refresh failed", err.Error())
		status := http.StatusInternalServerError
		code := "refresh_failed"
		if errors.Is(err, registry.ErrUpstreamFetch) {
			status = http.StatusBadGateway
			code = "registry_unavailable"
		}
		c.JSON(status, dto.ErrorResponse{
			Error:   code,
			Message: err.Error(),
		})
		return
	}

	rows := h.matchmaker.Status().TrialRows
	c.JSON(http.StatusOK, dto.RefreshResponse{
		Success:   true,
		Message:   fmt.Sprintf("corpus refreshed with %d trials", rows),
		TrialRows: rows,
	})
}

// Rebuild handles POST /rebuild - discard persisted embeddings for the
// current corpus and re-encode it.
func (h *AdminHandler) Rebuild(c *gin.Context) {
	if err := h.matchmaker.RebuildEmbeddings(c.Request.Context()); err != nil {
		_ = h.alerter.Alert("embedding rebuild failed", err.Error())
		status := http.StatusInternalServerError
		code := "rebuild_failed"
		if errors.Is(err, corpus.ErrNoCorpus) {
			status = http.StatusConflict
			code = "no_corpus"
		}
		c.JSON(status, dto.ErrorResponse{
			Error:   code,
			Message: err.Error(),
		})
		return
	}

	rows := h.matchmaker.Status().TrialRows
	c.JSON(http.StatusOK, dto.RefreshResponse{
		Success:   true,
		Message:   fmt.Sprintf("embeddings rebuilt for %d trials", rows),
		TrialRows: rows,
	})
}

// Status handles GET /status - cache introspection
func (h *AdminHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.matchmaker.Status())
}
