package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminlms/assessment-engine/internal/model"
	"github.com/luminlms/assessment-engine/internal/response"
	"github.com/luminlms/assessment-engine/internal/service"
)

// AssessmentHandler handles assessment lifecycle and reporting endpoints.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

// GetAssessment godoc
// GET /api/v1/assessments/:id
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	a, err := h.assessmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessment": a})
}

// PublishAssessment godoc
// POST /api/v1/assessments/:id/publish
// Validates the configuration and opens the assessment for sessions.
func (h *AssessmentHandler) PublishAssessment(c *gin.Context) {
	h.changeStatus(c, h.assessmentService.Publish)
}

// RejectAssessment godoc
// POST /api/v1/assessments/:id/reject
func (h *AssessmentHandler) RejectAssessment(c *gin.Context) {
	h.changeStatus(c, h.assessmentService.Reject)
}

// CompleteAssessment godoc
// POST /api/v1/assessments/:id/complete
func (h *AssessmentHandler) CompleteAssessment(c *gin.Context) {
	h.changeStatus(c, h.assessmentService.Complete)
}

// GetResults godoc
// GET /api/v1/assessments/:id/results
// Lists closed attempt outcomes with pagination.
func (h *AssessmentHandler) GetResults(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	results, total, err := h.assessmentService.Results(c.Request.Context(), id, page, perPage)
	if err != nil {
		h.failLifecycle(c, err)
		return
	}

	pagination := response.NewPagination(page, perPage, total)
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

func (h *AssessmentHandler) changeStatus(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*model.Assessment, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	a, err := op(c.Request.Context(), id)
	if err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessment": a})
}

func (h *AssessmentHandler) failLifecycle(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrInvalidStatusChange):
		response.Fail(c, http.StatusConflict, response.ErrInvalidStatusChange)
	case errors.Is(err, model.ErrGradingModeConflict), errors.Is(err, model.ErrGradingModeMissing):
		response.Fail(c, http.StatusBadRequest, response.ErrGradingModeConflict)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	case errors.Is(err, service.ErrPoolTooSmall), errors.Is(err, service.ErrInvalidSampleSize):
		response.Fail(c, http.StatusBadRequest, response.ErrPoolTooSmall)
	case errors.Is(err, service.ErrMissingCorrectOption):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
