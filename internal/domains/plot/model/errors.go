package model

import "errors"

var (
	ErrPlotNotFound    = errors.New("plot not found")
	ErrElementNotFound = errors.New("plot point not found")
)
