// Package httpapi exposes the timesheet backend over HTTP with gin.
//
// Success bodies are the bare payload the field client decodes. Failures
// use an envelope: {"ok":false,"error":{"code":...,"message":...}}.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/sitecrew/internal/common"
)

const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeTooLarge           = "PAYLOAD_TOO_LARGE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

type ApiEnvelope struct {
	Ok    bool      `json:"ok"`
	Data  any       `json:"data,omitempty"`
	Error *ApiError `json:"error,omitempty"`
}

type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// AppError carries the HTTP status and code a failure is reported with.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func WrapAppError(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// Error writes the failure envelope.
func Error(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, ApiEnvelope{
		Ok:    false,
		Error: &ApiError{Code: code, Message: message, Details: details},
	})
}

// abort writes the failure envelope and stops the handler chain.
func abort(c *gin.Context, status int, code, message string) {
	Error(c, status, code, message, nil)
	c.Abort()
}

// ToAppError maps service and binding errors onto HTTP statuses.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("%s is invalid", fe.Field())
		if fe.Tag() == "required" {
			msg = fmt.Sprintf("%s is required", fe.Field())
		}
		return WrapAppError(err, CodeInvalidInput, msg, http.StatusBadRequest)
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return WrapAppError(err, CodeTooLarge, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, common.ErrorValidation):
		return WrapAppError(err, CodeInvalidInput, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrTokenExpired):
		return WrapAppError(err, CodeTokenExpired, "access token expired", http.StatusUnauthorized)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return WrapAppError(err, CodeUnauthorized, "authentication is required", http.StatusUnauthorized)
	case errors.Is(err, common.ErrorForbidden):
		return WrapAppError(err, CodeForbidden, "you do not have permission to access this resource", http.StatusForbidden)
	case errors.Is(err, common.ErrorNotFound):
		return WrapAppError(err, CodeNotFound, "resource not found", http.StatusNotFound)
	case errors.Is(err, common.ErrorAlreadyExists):
		return WrapAppError(err, CodeConflict, err.Error(), http.StatusConflict)
	}
	return WrapAppError(err, CodeInternalError, "an unexpected error occurred", http.StatusInternalServerError)
}
