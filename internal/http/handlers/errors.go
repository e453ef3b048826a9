package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http/middleware"
)

// Error bodies keep the {"error": "..."} shape the web client already reads,
// plus a machine code and the request id.
func respond(c *gin.Context, status int, code, message string, err error) {
	body := gin.H{"error": message}
	if code != "" {
		body["code"] = code
	}
	if rid := middleware.GetRequestID(c); rid != "" {
		body["request_id"] = rid
	}
	if err != nil {
		// surfaced by the request logger
		_ = c.Error(err)
		if status < http.StatusInternalServerError {
			body["details"] = err.Error()
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// RespondError writes a plain error; err, when given, is logged and, for
// client errors, echoed as details.
func RespondError(c *gin.Context, status int, message string, err error) {
	respond(c, status, "", message, err)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	if up, ok := domain.AsUpstream(err); ok {
		if up.Status == http.StatusUnauthorized {
			respond(c, http.StatusUnauthorized, "unauthorized", "unauthorized", nil)
			return
		}
		respond(c, http.StatusBadGateway, "upstream_error", "recipe service unavailable", err)
		return
	}
	switch {
	case domain.IsValidation(err):
		respond(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsUnauthorized(err):
		respond(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsNotFound(err):
		respond(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respond(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respond(c, http.StatusInternalServerError, "internal_error", "something went wrong", err)
	}
}

// BindJSONOrError decodes the body into dst or answers 400.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondDomainError(c, domain.ValidationError{Msg: "empty body"})
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondDomainError(c, domain.ValidationError{Msg: "invalid payload", Err: err})
		return false
	}
	return true
}
