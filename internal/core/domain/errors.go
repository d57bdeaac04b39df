package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSyncInProgress indicates a sync cycle is already running
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNoPendingUpload indicates there is no stashed upload to confirm or cancel
	ErrNoPendingUpload = errors.New("no pending upload")

	// ErrGistNotConfigured indicates the gist token or id is missing from settings
	ErrGistNotConfigured = errors.New("gist sync not configured")

	// ErrModelNotConfigured indicates no usable AI model configuration exists
	ErrModelNotConfigured = errors.New("ai model not configured")

	// ErrDegradedOutput indicates the AI reply looks like runaway generation
	ErrDegradedOutput = errors.New("degraded ai output")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)
