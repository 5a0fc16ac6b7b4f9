package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:     0,
	HTTP:     http.StatusOK,
	GRPCCode: codes.OK,
	Message:  "Success",
})

var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewRequestErr(ServiceCommon, 0, "Bad request")

	// ErrRouteNotFound indicates the route does not exist.
	ErrRouteNotFound = NewNotFoundErr(ServiceCommon, 0, "Route not found")

	// ErrResourceNotFound indicates the addressed resource does not exist.
	ErrResourceNotFound = NewNotFoundErr(ServiceCommon, 1, "Resource not found")

	// ErrInternal indicates an internal server error.
	ErrInternal = NewInternalErr(ServiceCommon, 0, "Internal server error")

	// ErrPanic indicates a recovered panic.
	ErrPanic = NewInternalErr(ServiceCommon, 1, "Internal server error")

	// ErrInvalidConfig indicates invalid process configuration.
	ErrInvalidConfig = NewError(ServiceCommon, CategoryConfig, 0,
		http.StatusInternalServerError, codes.FailedPrecondition, "Invalid configuration")
)
