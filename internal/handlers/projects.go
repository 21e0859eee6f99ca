package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/models"
	"portfolio-site/internal/repository"
)

// ProjectsHandler serves the JSON project API. Reads are anonymous, writes
// run with the caller's access token so row level security applies.
type ProjectsHandler struct {
	tables backend.Tables
}

func NewProjectsHandler(tables backend.Tables) *ProjectsHandler {
	return &ProjectsHandler{tables: tables}
}

// ListProjects godoc
// @Summary     List projects
// @Description Returns every project, newest first
// @Tags        projects
// @Produce     json
// @Success     200 {object} models.ProjectListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	projects, err := repository.NewProjects(h.tables, "").ListAll(c.Request.Context())
	if err != nil {
		respondError(c, "failed to list projects", err)
		return
	}
	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: projects})
}

// CreateProject godoc
// @Summary     Create project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ProjectRequest true "Project"
// @Success     201 {object} models.MessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	if err := repository.NewProjects(h.tables, auth.AccessToken(c)).Create(c.Request.Context(), req.Fields()); err != nil {
		respondError(c, "failed to create project", err)
		return
	}
	c.JSON(http.StatusCreated, models.MessageResponse{Message: "project created"})
}

// UpdateProject godoc
// @Summary     Update project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Project ID"
// @Param       request body models.ProjectRequest true "Project"
// @Success     200 {object} models.MessageResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{id} [put]
func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	id := c.Param("id")
	if err := repository.NewProjects(h.tables, auth.AccessToken(c)).Update(c.Request.Context(), id, req.Fields()); err != nil {
		respondError(c, "failed to update project", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "project updated"})
}

// DeleteProject godoc
// @Summary     Delete project
// @Tags        projects
// @Security    Bearer
// @Param       id path string true "Project ID"
// @Success     200 {object} models.MessageResponse
// @Router      /projects/{id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := repository.NewProjects(h.tables, auth.AccessToken(c)).Delete(c.Request.Context(), id); err != nil {
		respondError(c, "failed to delete project", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "project deleted"})
}
