// Package response provides the API response structures.
package response

import (
	"net/http"

	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

// Response is the envelope used by the read-only API endpoints.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Data contains the response payload (nil for errors)
	Data interface{} `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`

	httpCode int
}

// Success creates a successful response with data.
func Success(data interface{}) *Response {
	return &Response{
		Code:     0,
		Message:  "success",
		Data:     data,
		httpCode: http.StatusOK,
	}
}

// Err creates an error response from an Errno type.
func Err(e *errors.Errno) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Code:     e.Code,
		Message:  e.Message,
		httpCode: e.HTTPStatus(),
	}
}

// WithRequestID adds request ID to the response.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// HTTPStatus returns the HTTP status code for this response.
func (r *Response) HTTPStatus() int {
	if r.httpCode != 0 {
		return r.httpCode
	}
	return http.StatusOK
}

// Message is the body shape of the connection config endpoints. Name and
// String are only present on update and connect responses.
type Message struct {
	Msg    string `json:"msg"`
	Name   string `json:"name,omitempty"`
	String string `json:"string,omitempty"`
}
