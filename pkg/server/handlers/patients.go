package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	matchmaker "github.com/TambeNeel/clinical-trial-matchmaker"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/patients"
	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/server/dto"
)

// PatientsHandler handles patient directory requests
type PatientsHandler struct {
	matchmaker matchmaker.Matchmaker
}

// NewPatientsHandler creates a new patients handler
func NewPatientsHandler(m matchmaker.Matchmaker) *PatientsHandler {
	return &PatientsHandler{
		matchmaker: m,
	}
}

// List handles GET /api/v1/patients
func (h *PatientsHandler) List(c *gin.Context) {
	ids, err := h.matchmaker.ListPatients()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "list_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.PatientListResponse{
		Patients: ids,
		Count:    len(ids),
	})
}

// Get handles GET /api/v1/patients/:patient_id
func (h *PatientsHandler) Get(c *gin.Context) {
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

	c.JSON(http.StatusOK, profile)
}
