package service

import "errors"

var (
	// ErrNoGrid is returned by Start when no row store backend was configured.
	ErrNoGrid = errors.New("service: no grid configured")
	// ErrNotStarted is returned by session lookups before Start.
	ErrNotStarted = errors.New("service: not started")
)
