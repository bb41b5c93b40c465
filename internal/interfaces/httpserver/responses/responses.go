// Package responses maps domain errors onto HTTP error payloads.
package responses

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/dharz/dharz-ai/internal/infrastructure/logger"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError writes the HTTP status derived from the error's type. Internal
// detail stays in the log; clients see the public message only.
func HandleError(c *gin.Context, err error) {
	errorType := platformerrors.TypeOf(err)
	status := platformerrors.ErrorTypeToHTTPStatus(errorType)

	message := "internal server error"
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) && errorType != platformerrors.ErrorTypeInternal && errorType != platformerrors.ErrorTypeDatabaseError {
		message = platformErr.Message
	}

	if status >= 500 {
		log := logger.GetLogger()
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     string(errorType),
		Message:   message,
		RequestID: c.GetString("X-Request-Id"),
	})
}

// HandleErrorWithStatus writes an explicit status with a public message.
func HandleErrorWithStatus(c *gin.Context, status int, err error, message string) {
	if err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Int("status", status).Str("path", c.FullPath()).Msg(message)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Message:   message,
		RequestID: c.GetString("X-Request-Id"),
	})
}
