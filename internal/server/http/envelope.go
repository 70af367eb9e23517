package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/errs"
)

// Envelope is the body of every response.
type Envelope struct {
	ResponseMessage string `json:"response_message"`
	Response        any    `json:"response"`
	Error           string `json:"error,omitempty"`
	SessionStatus   string `json:"sessionStatus,omitempty"`
}

// Error tags.
const (
	TagBadRequest   = "BAD REQUEST"
	TagUnauthorized = "UNAUTHORIZED"
	TagForbidden    = "FORBIDDEN"
	TagNotFound     = "NOT FOUND"
	TagConflict     = "CONFLICT"
)

const msgInternal = "Request was unsuccessful: internal server error"

// respond writes a successful envelope, carrying the session status recorded by the gates.
func respond(c *gin.Context, msg string, body any) {
	if body == nil {
		body = gin.H{}
	}
	c.JSON(http.StatusOK, Envelope{
		ResponseMessage: msg,
		Response:        body,
		SessionStatus:   sessionStatusFrom(c),
	})
}

// classify maps an error to its status code and tag. Unknown errors are 500s tagged with
// the error itself.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, errs.ErrAlreadyInactive):
		return http.StatusBadRequest, TagBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, TagUnauthorized
	case errors.Is(err, errs.ErrForbidden), errors.Is(err, errs.ErrInactive):
		return http.StatusForbidden, TagForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, TagNotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, TagConflict
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// writeError aborts the request with the envelope for err.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	code, tag := classify(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = msgInternal
		log.Error("internal error", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(code, Envelope{
		ResponseMessage: msg,
		Response:        gin.H{},
		Error:           tag,
	})
}
