package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medrelay/telemed-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response with 201 status
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response mapped from the error taxonomy.
// Unknown error types never leak store internals to the client.
func RespondWithError(c *gin.Context, err error) {
	code := errors.ErrInternal
	message := "internal server error"

	if appErr, ok := errors.AsAppError(err); ok {
		code = appErr.Code
		message = appErr.Message
	}

	c.JSON(statusFor(code), Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrValidation:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
