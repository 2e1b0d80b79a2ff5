package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// V2Response API 표준 응답 형식
type V2Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *V2Error    `json:"error,omitempty"`
}

// V2Error error payload
type V2Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// V2Success returns a success response
func V2Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, V2Response{
		Success: true,
		Data:    data,
	})
}

// V2Created returns a 201 Created response
func V2Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, V2Response{
		Success: true,
		Data:    data,
	})
}

// V2NoContent returns a success envelope without data
func V2NoContent(c *gin.Context) {
	c.JSON(http.StatusOK, V2Response{Success: true})
}

// V2ErrorResponse returns an error response
func V2ErrorResponse(c *gin.Context, status int, message string, err error) {
	v2Err := &V2Error{
		Code:    getErrorCode(status),
		Message: message,
	}
	if err != nil {
		v2Err.Details = err.Error()
	}
	c.JSON(status, V2Response{
		Success: false,
		Error:   v2Err,
	})
}

// HandleError renders a service error. AppError messages go to the client
// verbatim; anything else is reported as an internal error without details.
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(StatusOf(err), V2Response{
			Success: false,
			Error: &V2Error{
				Code:    string(appErr.Kind),
				Message: appErr.Message,
			},
		})
		return
	}
	_ = c.Error(err)
	V2ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 413:
		return "PAYLOAD_TOO_LARGE"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
