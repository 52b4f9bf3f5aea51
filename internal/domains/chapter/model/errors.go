package model

import "errors"

var (
	ErrChapterNotFound = errors.New("chapter not found")
	ErrPositionTaken   = errors.New("chapter position already taken")
)
