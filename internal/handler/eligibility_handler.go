package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminlms/assessment-engine/internal/response"
	"github.com/luminlms/assessment-engine/internal/service"
)

// EligibilityHandler handles eligibility report endpoints.
type EligibilityHandler struct {
	sessionService *service.SessionService
}

// NewEligibilityHandler creates a new EligibilityHandler.
func NewEligibilityHandler(sessionService *service.SessionService) *EligibilityHandler {
	return &EligibilityHandler{sessionService: sessionService}
}

// GetEligibility godoc
// GET /api/v1/assessments/:id/eligibility?user_id=...
// Returns the per-criterion eligibility breakdown and the retake standing
// for one user, without opening an attempt.
func (h *EligibilityHandler) GetEligibility(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.sessionService.Preflight(c.Request.Context(), assessmentID, userID)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"eligibility": report.Eligibility,
		"retake":      report.Retake,
	})
}
