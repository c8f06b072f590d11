package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/domain"
	"smarttravel/internal/http/middleware"
	"smarttravel/internal/utils"
)

func respondError(c *gin.Context, status int, message string, extra gin.H) {
	payload := gin.H{
		"status":     "error",
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	for k, v := range extra {
		payload[k] = v
	}
	c.JSON(status, payload)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, err.Error(), nil)
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, conflictMessage(err), nil)
	case domain.IsPrecondition(err):
		pe, _ := domain.AsPrecondition(err)
		var extra gin.H
		if pe.Redirect != "" {
			extra = gin.H{"redirect": pe.Redirect}
		}
		respondError(c, http.StatusPreconditionRequired, pe.Error(), extra)
	case domain.IsUpstream(err):
		respondError(c, http.StatusBadGateway, err.Error(), nil)
	default:
		utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error", errorDetail(err))
		msg := "Internal server error"
		if domain.IsInternal(err) {
			msg = err.Error()
		}
		respondError(c, http.StatusInternalServerError, msg, nil)
	}
}

// conflictMessage drops the resource prefix so clients see the bare message.
func conflictMessage(err error) string {
	var ce domain.ConflictError
	if errors.As(err, &ce) && ce.Msg != "" {
		return ce.Msg
	}
	return err.Error()
}

func errorDetail(err error) string {
	var ie domain.InternalError
	if errors.As(err, &ie) && ie.Err != nil {
		return ie.Msg + ": " + ie.Err.Error()
	}
	return err.Error()
}
