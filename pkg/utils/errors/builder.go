package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

func validateCodeParams(service, category, sequence int) {
	if service < 0 || service > 99 {
		panic(fmt.Sprintf("errors: service code %d out of range [0, 99]", service))
	}
	if category < 0 || category > 99 {
		panic(fmt.Sprintf("errors: category code %d out of range [0, 99]", category))
	}
	if sequence < 0 || sequence > 999 {
		panic(fmt.Sprintf("errors: sequence %d out of range [0, 999]", sequence))
	}
}

// NewError creates and registers a new Errno with the given parameters.
// Panics if registration fails or if message is empty.
func NewError(service, category, sequence int, httpStatus int, grpcCode codes.Code, message string) *Errno {
	validateCodeParams(service, category, sequence)
	if message == "" {
		panic("errors: message is required")
	}

	return Register(&Errno{
		Code:     MakeCode(service, category, sequence),
		HTTP:     httpStatus,
		GRPCCode: grpcCode,
		Message:  message,
	})
}

// NewRequestErr creates and registers a request/validation error (HTTP 400).
func NewRequestErr(service, sequence int, msg string) *Errno {
	return NewError(service, CategoryRequest, sequence, http.StatusBadRequest, codes.InvalidArgument, msg)
}

// NewNotFoundErr creates and registers a resource not found error (HTTP 404).
func NewNotFoundErr(service, sequence int, msg string) *Errno {
	return NewError(service, CategoryResource, sequence, http.StatusNotFound, codes.NotFound, msg)
}

// NewConflictErr creates and registers a conflict error (HTTP 409).
func NewConflictErr(service, sequence int, msg string) *Errno {
	return NewError(service, CategoryConflict, sequence, http.StatusConflict, codes.AlreadyExists, msg)
}

// NewInternalErr creates and registers an internal error (HTTP 500).
func NewInternalErr(service, sequence int, msg string) *Errno {
	return NewError(service, CategoryInternal, sequence, http.StatusInternalServerError, codes.Internal, msg)
}
