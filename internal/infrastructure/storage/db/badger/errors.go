package dbbadger

import "errors"

var (
	// ErrNullDbManager ...
	ErrNullDbManager = errors.New("db manager must not be null")
)
