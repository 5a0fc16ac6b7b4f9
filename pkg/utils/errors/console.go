package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Connection management errors. The config HTTP contract only knows 200 and
// 400, so every one of them maps to http.StatusBadRequest.
var (
	// ErrInvalidURI indicates a malformed connection string.
	ErrInvalidURI = NewRequestErr(ServiceConsole, 1, "Invalid connection string")

	// ErrInvalidOptions indicates the connection options payload is not a JSON object.
	ErrInvalidOptions = NewRequestErr(ServiceConsole, 2, "Invalid connection options")

	// ErrDuplicateName indicates a connection by that name already exists.
	ErrDuplicateName = NewError(ServiceConsole, CategoryConflict, 1,
		http.StatusBadRequest, codes.AlreadyExists, "A connection by that name already exists")

	// ErrNotFound indicates the named connection does not exist.
	ErrNotFound = NewError(ServiceConsole, CategoryResource, 1,
		http.StatusBadRequest, codes.NotFound, "Connection not found")

	// ErrConnect indicates the driver failed to establish a connection.
	ErrConnect = NewError(ServiceInfraDB, CategoryNetwork, 1,
		http.StatusBadRequest, codes.Unavailable, "Connection failed")

	// ErrConnectTimeout indicates the connection attempt exceeded its deadline.
	ErrConnectTimeout = NewError(ServiceInfraDB, CategoryTimeout, 1,
		http.StatusBadRequest, codes.DeadlineExceeded, "Connection timed out")

	// ErrPersist indicates the descriptor store could not be written.
	ErrPersist = NewError(ServiceInfraStore, CategoryDatabase, 1,
		http.StatusBadRequest, codes.Internal, "Failed to save connection config")
)
