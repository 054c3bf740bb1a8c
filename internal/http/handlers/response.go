// Package handlers provides the HTTP handlers for submission intake and
// moderator retrieval.
//
// This file holds the shared response helpers. respondError is the only place
// where an error becomes a wire response:
//
//   - repo.ErrNotFound renders as 404 not_found.
//   - Domain variants render with their own status and code.
//   - Anything else renders as a generic 500; the cause goes to the log only.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_anon",
//	  "message": "invalid anon value \"maybe\", must be one of {yes, no, axolotl}"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
	"github.com/runxiyu/ykps-sjdb/internal/http/middleware"
	"github.com/runxiyu/ykps-sjdb/internal/repo"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code
	Code string `json:"code" example:"missing_field"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"missing field \"origin\""`
}

// fail aborts with the error envelope. 5xx responses are logged through the
// request-scoped logger; cause is attached when known.
func fail(c *gin.Context, status int, code, msg string, cause error) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail writes an error envelope without a cause. Used by router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg, nil) }

// respondError maps err to its response.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no such file", nil)
		return
	}
	se := domain.AsStatusError(err)
	fail(c, se.Status(), se.Code(), domain.PublicMessage(se), err)
}
