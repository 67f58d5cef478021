package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyon/internal/billing"
)

// RespondBillingError translates the gateway's two failure kinds into HTTP
// responses. Rejections pass through with their status and field errors;
// unavailability always renders the same generic message.
func RespondBillingError(c *gin.Context, err error) {
	var rejected *billing.RejectedError
	if errors.As(err, &rejected) {
		status := rejected.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		c.JSON(status, FieldErrorResponse{
			Error:  rejected.Message,
			Fields: rejected.FieldErrors,
		})
		return
	}

	var unavailable *billing.UnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: unavailable.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}
