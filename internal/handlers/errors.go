package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/errs"
	"portfolio-site/internal/models"
)

// errorStatus maps the error taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	var validation *errs.ValidationError
	var be *backend.Error
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &be) && be.Status >= 400 && be.Status < 500:
		return be.Status
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, summary string, err error) {
	_ = c.Error(err)
	c.JSON(errorStatus(err), models.ErrorResponse{
		Error:   summary,
		Message: errs.Message(err),
	})
}
