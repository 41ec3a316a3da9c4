package http

import (
	"errors"
	"net/http"

	"quiz-competition-service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// errCode identifies a failure category to API clients.
type errCode string

const (
	codeValidation       errCode = "VALIDATION_ERROR"
	codeInvalidPayload   errCode = "INVALID_PAYLOAD"
	codeNotFound         errCode = "NOT_FOUND"
	codeConflict         errCode = "CONFLICT"
	codeMethodNotAllowed errCode = "METHOD_NOT_ALLOWED"
	codeInternal         errCode = "INTERNAL_ERROR"
)

func messageFor(code errCode) string {
	switch code {
	case codeValidation:
		return "Validation failed. Please check your input."
	case codeInvalidPayload:
		return "Invalid request payload."
	case codeNotFound:
		return "Resource not found."
	case codeConflict:
		return "The request conflicts with the current state. Please retry."
	case codeMethodNotAllowed:
		return "Invalid method"
	default:
		return "Internal server error."
	}
}

type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Status  string            `json:"status"`
	Code    errCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, statusBody{Status: "success", Message: message})
}

func fail(c *gin.Context, status int, code errCode, message string, fields map[string]string) {
	if message == "" {
		message = messageFor(code)
	}
	c.AbortWithStatusJSON(status, errorBody{Status: "error", Code: code, Message: message, Fields: fields})
}

// failErr classifies err into a sanitized response. Internal details only
// reach the log, never the client.
func failErr(c *gin.Context, log zerolog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, codeValidation, verr.Message, verr.Fields)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidQuestion):
		fail(c, http.StatusBadRequest, codeValidation, "", nil)
	case errors.Is(err, domain.ErrDepartmentNotFound),
		errors.Is(err, domain.ErrParticipantNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAttemptNotFound):
		fail(c, http.StatusNotFound, codeNotFound, "", nil)
	case errors.Is(err, domain.ErrStaleAnswer):
		fail(c, http.StatusConflict, codeConflict, "This question was already answered.", nil)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrParticipantExists):
		fail(c, http.StatusConflict, codeConflict, "", nil)
	default:
		log.Error().Err(err).Str("request_id", c.GetString(contextKeyRequestID)).Str("path", c.FullPath()).Msg("request failed")
		fail(c, http.StatusInternalServerError, codeInternal, "", nil)
	}
}
