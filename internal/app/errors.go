package service

import "errors"

// Sentinel errors.
var (
	ErrNoFeed  = errors.New("no feed transport configured")
	ErrStopped = errors.New("service stopped")
)
