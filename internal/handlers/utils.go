package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"stocksim/internal/simerror"

	"github.com/gin-gonic/gin"
)

// defaultOwnerID stands in until real authentication fronts the service.
const defaultOwnerID uint = 1

// ownerID extracts the calling user from the X-User-ID header. Auth is an
// external collaborator; the gateway is expected to set this header.
func ownerID(c *gin.Context) uint {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		return defaultOwnerID
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		return defaultOwnerID
	}
	return uint(parsed)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, simerror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, simerror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, simerror.ErrInvalidState),
		errors.Is(err, simerror.ErrInsufficientFunds),
		errors.Is(err, simerror.ErrOverdraft),
		errors.Is(err, simerror.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, simerror.ErrPriceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps an error kind onto an HTTP status and a JSON body.
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
