package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/failure"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError maps application failures onto status codes. message overrides
// the default text when not empty.
func writeError(c *gin.Context, err error, message string) {
	kind := failure.KindOf(err)
	status := failure.HTTPStatus(kind)
	if kind == "" && errors.Is(err, bus.ErrInvalidMessage) {
		status = http.StatusBadRequest
	}
	code := string(kind)
	if code == "" {
		code = "INTERNAL"
	}
	if message == "" && status < http.StatusInternalServerError {
		message = err.Error()
	}
	c.JSON(status, errorResponse{Error: code, Message: message})
}
