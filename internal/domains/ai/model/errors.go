package model

import "errors"

var (
	ErrGenerationNotFound = errors.New("generation not found")
	ErrRateLimited        = errors.New("too many AI requests, slow down")
)
