package domain

import "errors"

var (
	ErrPlayerNotFound       = errors.New("player not found")
	UnexpectedDatabaseError = errors.New("unexpected database error")
)
