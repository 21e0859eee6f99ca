package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/models"
	"portfolio-site/internal/repository"
)

type SkillsHandler struct {
	tables backend.Tables
}

func NewSkillsHandler(tables backend.Tables) *SkillsHandler {
	return &SkillsHandler{tables: tables}
}

// ListSkills godoc
// @Summary     List skills
// @Description Returns every skill ordered by name
// @Tags        skills
// @Produce     json
// @Success     200 {object} models.SkillListResponse
// @Router      /skills [get]
func (h *SkillsHandler) ListSkills(c *gin.Context) {
	skills, err := repository.NewSkills(h.tables, "").ListAll(c.Request.Context())
	if err != nil {
		respondError(c, "failed to list skills", err)
		return
	}
	c.JSON(http.StatusOK, models.SkillListResponse{Skills: skills})
}

func (h *SkillsHandler) CreateSkill(c *gin.Context) {
	var req models.SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if err := repository.NewSkills(h.tables, auth.AccessToken(c)).Create(c.Request.Context(), req.Fields()); err != nil {
		respondError(c, "failed to create skill", err)
		return
	}
	c.JSON(http.StatusCreated, models.MessageResponse{Message: "skill created"})
}

func (h *SkillsHandler) UpdateSkill(c *gin.Context) {
	var req models.SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if err := repository.NewSkills(h.tables, auth.AccessToken(c)).Update(c.Request.Context(), c.Param("id"), req.Fields()); err != nil {
		respondError(c, "failed to update skill", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "skill updated"})
}

func (h *SkillsHandler) DeleteSkill(c *gin.Context) {
	if err := repository.NewSkills(h.tables, auth.AccessToken(c)).Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "failed to delete skill", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "skill deleted"})
}
