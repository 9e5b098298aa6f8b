package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

type Response struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details []apperrors.FieldError `json:"details,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps a service error to its HTTP status and renders the
// envelope, carrying the structured details when present.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	resp := &Response{
		Status:  "error",
		Message: appErr.Message,
		Details: appErr.Details,
	}
	c.JSON(statusOf(appErr.Code), resp)
}

func statusOf(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrAlreadyExists:
		return http.StatusConflict
	case apperrors.ErrInvalidArgument,
		apperrors.ErrSizeInvalid,
		apperrors.ErrTypeInvalid,
		apperrors.ErrRegistrationFailed,
		apperrors.ErrUpdateFailed,
		apperrors.ErrRoleOperationFailed:
		return http.StatusBadRequest
	case apperrors.ErrLoginFailed,
		apperrors.ErrRefreshTokenExpired,
		apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
