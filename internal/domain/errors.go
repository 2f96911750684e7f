package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrSourceDown     = errors.New("external price source unavailable")
	ErrSyncInProgress = errors.New("sync already in progress")
)
