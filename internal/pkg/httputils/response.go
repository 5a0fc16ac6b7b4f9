// Package httputils provides HTTP utility functions.
package httputils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/mongo-console/pkg/infra/middleware"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
	"github.com/kart-io/mongo-console/pkg/utils/response"
)

// WriteResponse writes the response envelope to the client.
// A nil err writes data with status 200.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	var resp *response.Response
	if err != nil {
		resp = response.Err(errors.FromError(err))
	} else {
		resp = response.Success(data)
	}
	resp.WithRequestID(middleware.GetRequestID(c.Request.Context()))
	c.JSON(resp.HTTPStatus(), resp)
}

// WriteStatus is like WriteResponse for errors but overrides the status code.
func WriteStatus(c *gin.Context, status int, err error) {
	resp := response.Err(errors.FromError(err)).WithRequestID(middleware.GetRequestID(c.Request.Context()))
	c.JSON(status, resp)
}

// WriteMessage writes a {msg} body. Config routes only ever answer 200 or 400.
func WriteMessage(c *gin.Context, msg response.Message) {
	c.JSON(http.StatusOK, msg)
}

// WriteMessageError writes a 400 {msg} body of the form "prefix: reason".
func WriteMessageError(c *gin.Context, prefix string, err error) {
	c.JSON(http.StatusBadRequest, response.Message{Msg: prefix + ": " + errors.FromError(err).Reason()})
}
