package domain

import "errors"

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrModelNotFound   = errors.New("model not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Replay ingestion errors
var (
	ErrReplayNotFound = errors.New("replay artifact not found")
	ErrReplayParse    = errors.New("replay artifact is malformed")
)
