package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no reader handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrClassifierUnavailable indicates the classifier service is not configured.
	// The pipeline degrades to a conservative default plan without it.
	ErrClassifierUnavailable = errors.New("classifier service unavailable")

	// ErrOCRUnavailable indicates no optical recognition engine is configured.
	ErrOCRUnavailable = errors.New("OCR engine unavailable")

	// ErrCollisionUnresolved indicates the safe-move collision loop gave up.
	ErrCollisionUnresolved = errors.New("filename collision could not be resolved")

	// ErrPendingResolved indicates a pending plan was already resolved.
	ErrPendingResolved = errors.New("pending plan already resolved")

	// ErrWatcherClosed indicates the directory watcher has been stopped.
	ErrWatcherClosed = errors.New("watcher closed")
)
