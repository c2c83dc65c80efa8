package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrSessionComplete = errors.New("session already complete")
	ErrNotComplete     = errors.New("session not complete")
	ErrInvalidStage    = errors.New("unknown stage")
)
