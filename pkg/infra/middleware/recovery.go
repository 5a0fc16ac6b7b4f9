package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-console/pkg/utils/errors"
	"github.com/kart-io/mongo-console/pkg/utils/response"
)

// PanicResponder writes the client response after a panic was recovered.
type PanicResponder func(c *gin.Context, err *errors.Errno)

// Recovery returns a middleware that recovers from panics and renders the
// standard error envelope.
func Recovery() gin.HandlerFunc {
	return RecoveryWithResponder(nil)
}

// RecoveryWithResponder returns a Recovery middleware that hands the
// recovered error to respond. A nil respond renders ErrPanic.
func RecoveryWithResponder(respond PanicResponder) gin.HandlerFunc {
	if respond == nil {
		respond = func(c *gin.Context, err *errors.Errno) {
			resp := response.Err(err).WithRequestID(GetRequestID(c.Request.Context()))
			c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
		}
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if r == http.ErrAbortHandler {
					panic(r)
				}
				logger.Errorw("panic recovered",
					"panic", r,
					"stack_trace", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", GetRequestID(c.Request.Context()),
				)
				respond(c, errors.ErrPanic)
			}
		}()
		c.Next()
	}
}
