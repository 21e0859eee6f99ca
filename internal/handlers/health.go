package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-site/internal/models"
)

// HealthHandler godoc
// @Summary     Health check
// @Description Returns the health status of the site and the backend in use
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func HealthHandler(backendName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "ok",
			Backend: backendName,
		})
	}
}
