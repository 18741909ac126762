package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	matchmaker "github.com/TambeNeel/clinical-trial-matchmaker"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/patients"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/server/dto"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/telemetry"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

// MatchHandler handles trial ranking requests
type MatchHandler struct {
	matchmaker matchmaker.Matchmaker
	logger     *slog.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(m matchmaker.Matchmaker) *MatchHandler {
	return &MatchHandler{
		matchmaker: m,
		logger:     slog.Default(),
	}
}

// Match handles POST /api/v1/match
func (h *MatchHandler) Match(c *gin.Context) {
	profile, results, ok := h.runMatch(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.MatchResponse{
		PatientID:   profile.PatientID,
		Results:     results,
		Count:       len(results),
		GeneratedAt: time.Now().UTC(),
	})
}

// MatchStored handles POST /api/v1/match/:patient_id
func (h *MatchHandler) MatchStored(c *gin.Context) {
	patientID := c.Param("patient_id")

	profile, err := h.matchmaker.LoadPatient(patientID)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "patient_not_found",
				Message: fmt.Sprintf("no stored profile for %q", patientID),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "patient_load_failed",
			Message: err.Error(),
		})
		return
	}

	topK := 0
	if raw := c.Query("top_k"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			topK = v
		}
	}

	tagPatient(c, profile.PatientID)
	results, err := h.matchmaker.Match(c.Request.Context(), profile, topK)
	if err != nil {
		h.writeMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MatchResponse{
		PatientID:   profile.PatientID,
		Results:     results,
		Count:       len(results),
		GeneratedAt: time.Now().UTC(),
	})
}

// ExportCSV handles POST /api/v1/export - same input as Match, but the
// ranked results stream back as a CSV attachment.
func (h *MatchHandler) ExportCSV(c *gin.Context) {
	profile, results, ok := h.runMatch(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("matches_%s_%s.csv", profile.PatientID, time.Now().UTC().Format("20060102_150405"))

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"nct_id", "title", "condition", "score", "status", "why_matched", "why_excluded", "nct_url"})
	for _, r := range results {
		_ = w.Write([]string{
			r.NCTID,
			r.Title,
			r.Condition,
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			r.Status,
			joinReasons(r.WhyMatched),
			joinReasons(r.WhyExcluded),
			r.URL,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		// Headers are already sent; the export is truncated client-side.
		h.logger.ErrorContext(c.Request.Context(), "csv export write failed",
			"patient_id", profile.PatientID, "error", err)
	}
}

// runMatch binds and validates the request, resolves the patient profile
// and runs the ranking. On failure it writes the error response itself.
func (h *MatchHandler) runMatch(c *gin.Context) (*types.PatientProfile, []types.RankingResult, bool) {
	var req dto.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return nil, nil, false
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return nil, nil, false
	}

	profile := req.Patient
	if req.PatientID != "" {
		loaded, err := h.matchmaker.LoadPatient(req.PatientID)
		if err != nil {
			if errors.Is(err, patients.ErrPatientNotFound) {
				c.JSON(http.StatusNotFound, dto.ErrorResponse{
					Error:   "patient_not_found",
					Message: fmt.Sprintf("no stored profile for %q", req.PatientID),
				})
				return nil, nil, false
			}
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "patient_load_failed",
				Message: err.Error(),
			})
			return nil, nil, false
		}
		profile = loaded
	}

	tagPatient(c, profile.PatientID)
	results, err := h.matchmaker.Match(c.Request.Context(), profile, req.TopK)
	if err != nil {
		h.writeMatchError(c, err)
		return nil, nil, false
	}

	return profile, results, true
}

// writeMatchError maps ranking errors to HTTP status codes.
func (h *MatchHandler) writeMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, matchmaker.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   "not_ready",
			Message: "trial corpus is not loaded yet",
		})
	case errors.Is(err, matchmaker.ErrInvalidPatient):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_patient",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "match_failed",
			Message: err.Error(),
		})
	}
}

// tagPatient stamps the resolved patient onto the request context so error
// telemetry records carry the patient id.
func tagPatient(c *gin.Context, patientID string) {
	ctx := context.WithValue(c.Request.Context(), telemetry.ContextKeyPatientID, patientID)
	c.Request = c.Request.WithContext(ctx)
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, "; ")
}
