package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminlms/assessment-engine/internal/model"
	"github.com/luminlms/assessment-engine/internal/response"
	"github.com/luminlms/assessment-engine/internal/service"
	"github.com/luminlms/assessment-engine/internal/validator"
)

// SessionHandler handles exam session lifecycle endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// StartSession godoc
// POST /api/v1/assessments/:id/sessions
// Opens a new attempt: eligibility, window, and retake gates apply.
func (h *SessionHandler) StartSession(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	started, err := h.sessionService.Start(c.Request.Context(), assessmentID, req.UserID)
	if err != nil {
		h.failStart(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": started})
}

func (h *SessionHandler) failStart(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAssessmentNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotPublished)
	case errors.Is(err, service.ErrOutsideTimeWindow):
		response.Fail(c, http.StatusForbidden, response.ErrOutsideTimeWindow)
	case errors.Is(err, service.ErrNotEligible):
		response.Fail(c, http.StatusForbidden, response.ErrNotEligible)
	case errors.Is(err, service.ErrRetakeExhausted):
		response.Fail(c, http.StatusForbidden, response.ErrRetakeExhausted)
	case errors.Is(err, service.ErrSessionAlreadyOpen):
		response.Fail(c, http.StatusConflict, response.ErrSessionAlreadyOpen)
	case errors.Is(err, service.ErrPoolTooSmall), errors.Is(err, service.ErrInvalidSampleSize):
		response.Fail(c, http.StatusConflict, response.ErrPoolTooSmall)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// SaveAnswer godoc
// PUT /api/v1/sessions/:id/answers
// Buffers one answer on an open session. Last write per question wins.
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.SaveAnswer(c.Request.Context(), sessionID, req.Answer); err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrSessionAlreadyClosed):
			response.Fail(c, http.StatusConflict, response.ErrSessionAlreadyClosed)
		case errors.Is(err, service.ErrQuestionNotInSession):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// GetState godoc
// GET /api/v1/sessions/:id/state
// Returns the polling view of a session; expires overdue sessions lazily.
func (h *SessionHandler) GetState(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// SubmitSession godoc
// POST /api/v1/sessions/:id/submit
// Closes and grades a session. Submitting a closed session is an idempotent
// no-op returning the stored result.
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), sessionID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrSessionErrored):
			response.Fail(c, http.StatusInternalServerError, response.ErrSessionErrored)
		case errors.Is(err, service.ErrResultNotReady):
			response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetAnswers godoc
// GET /api/v1/sessions/:id/answers
// Returns the persisted graded answers of a closed session, for reviewers
// marking free-text responses.
func (h *SessionHandler) GetAnswers(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, err := h.sessionService.Answers(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrResultNotReady):
			response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
		case errors.Is(err, service.ErrSessionErrored):
			response.Fail(c, http.StatusConflict, response.ErrSessionErrored)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}

// GetResult godoc
// GET /api/v1/sessions/:id/result
// Returns the stored result of a closed session.
func (h *SessionHandler) GetResult(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Result(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrResultNotReady):
			response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
		case errors.Is(err, service.ErrSessionErrored):
			response.Fail(c, http.StatusConflict, response.ErrSessionErrored)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
