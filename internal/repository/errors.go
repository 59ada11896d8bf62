package repository

import "errors"

var (
	// ErrSessionNotFound indicates the session expired or never existed
	ErrSessionNotFound = errors.New("session not found")

	// ErrRepositoryClosed indicates the store was shut down
	ErrRepositoryClosed = errors.New("session repository closed")
)
