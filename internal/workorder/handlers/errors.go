package handlers

import (
	"errors"
	"net/http"

	e "github.com/Luiscraft7/sistema-dn/internal/workorder/errors"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the structured error body every failed request gets.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError recovers a service error at the request boundary and maps
// it onto the HTTP taxonomy. Unrecognized errors become 500 without
// leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, e.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation_error"})
	case errors.Is(err, e.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_transition"})
	case errors.Is(err, e.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, e.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "forbidden"})
	case errors.Is(err, e.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "conflict"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
	}
}
