package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
)

// writeError maps a domain failure onto an HTTP status and a stable error
// code. Reasons are safe for user display; anything unrecognized becomes an
// opaque 500.
func writeError(c *gin.Context, err error) {
	var fe *fault.Error
	if errors.As(err, &fe) {
		c.JSON(statusFor(fe.Code), gin.H{"error": string(fe.Code), "reason": fe.Reason})
		return
	}
	if db.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}

func statusFor(code fault.Code) int {
	switch code {
	case fault.InvalidAmount:
		return http.StatusBadRequest
	case fault.EligibilityDenied, fault.Forbidden:
		return http.StatusForbidden
	case fault.NotFound:
		return http.StatusNotFound
	case fault.StateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
