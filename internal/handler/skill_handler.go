package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminlms/assessment-engine/internal/response"
	"github.com/luminlms/assessment-engine/internal/service"
)

// SkillHandler handles skill attainment endpoints.
type SkillHandler struct {
	skillService *service.SkillService
}

// NewSkillHandler creates a new SkillHandler.
func NewSkillHandler(skillService *service.SkillService) *SkillHandler {
	return &SkillHandler{skillService: skillService}
}

// GetUserSkills godoc
// GET /api/v1/users/:id/skills
// Lists the skills a user has attained through assessments.
func (h *SkillHandler) GetUserSkills(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attainments, err := h.skillService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"skills": attainments})
}
