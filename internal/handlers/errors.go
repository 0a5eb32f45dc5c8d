package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"photo-versions-backend/internal/models"
	"photo-versions-backend/internal/services"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindUnauthenticated: http.StatusUnauthorized,
	services.KindForbidden:       http.StatusForbidden,
	services.KindValidation:      http.StatusBadRequest,
	services.KindInvalidCursor:   http.StatusBadRequest,
	services.KindNotFound:        http.StatusNotFound,
	services.KindInternal:        http.StatusInternalServerError,
}

var kindTitle = map[services.ErrorKind]string{
	services.KindUnauthenticated: "unauthorized",
	services.KindForbidden:       "forbidden",
	services.KindValidation:      "bad request",
	services.KindInvalidCursor:   "bad request",
	services.KindNotFound:        "not found",
	services.KindInternal:        "internal server error",
}

// StatusForKind maps a service error kind to its HTTP status.
func StatusForKind(kind services.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse. Backend causes stay in the
// logs; the caller only sees the service message.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	message := "internal server error"
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	_ = c.Error(err)
	c.JSON(StatusForKind(kind), models.ErrorResponse{
		Error:   kindTitle[kind],
		Message: message,
		Code:    string(kind),
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "bad request",
		Message: message,
		Code:    string(services.KindValidation),
	})
}
