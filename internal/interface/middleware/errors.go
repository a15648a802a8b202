package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"streamtube/pkg/apierror"
	"streamtube/pkg/response"
)

// HandlerFunc is a route handler that reports failure by returning an
// error instead of writing its own error response.
type HandlerFunc func(c *gin.Context) error

// Wrap adapts a HandlerFunc to gin. A non-nil error is recorded on the
// context and the chain aborted, so the failure always reaches
// ErrorReporter; it is never swallowed and never crashes the request.
func Wrap(fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c); err != nil {
			_ = c.Error(err)
			c.Abort()
		}
	}
}

// ErrorReporter is the single centralized error stage. It serializes the
// failure envelope for any error recorded by Wrap: an *apierror.Error maps
// to its own status and details, anything else becomes a 500 with the
// generic message. The original cause is logged, never sent to the caller.
// If a handler already wrote a response, nothing is written again.
func ErrorReporter(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		if c.Writer.Written() {
			return
		}

		var apiErr *apierror.Error
		if errors.As(err, &apiErr) {
			if apiErr.Status >= http.StatusInternalServerError && logger != nil {
				logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
			}
			response.Error(c, apiErr.Status, apiErr.Message, apiErr.Details)
			return
		}

		if logger != nil {
			logger.WithError(err).WithField("path", c.FullPath()).Error("unhandled request error")
		}
		response.Error(c, http.StatusInternalServerError, apierror.DefaultMessage, nil)
	}
}
