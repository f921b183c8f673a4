package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrMissingIdentity  = fmt.Errorf("missing identity fields")
	ErrInvalidMessage   = fmt.Errorf("invalid message format")
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrMetadataAttached = fmt.Errorf("metadata already attached")
	ErrUnknownRole      = fmt.Errorf("unknown role")
	ErrInvalidToken     = fmt.Errorf("invalid token")
)
