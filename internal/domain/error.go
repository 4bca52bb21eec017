package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limit exceeded")

	// Input errors; a job is never created for these.
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file exceeds upload limit")
	ErrLanguageNotFound = errors.New("target language not found")

	// Pipeline errors
	ErrNoContent        = errors.New("no content could be extracted from the file")
	ErrJobTerminal      = errors.New("job already finished")
	ErrQueueFull        = errors.New("translation queue is full")
	ErrSuggestionAbsent = errors.New("suggestion not found")
	ErrNoResult         = errors.New("chat has no translation result")

	// Persistence plumbing
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("read database row")
)
