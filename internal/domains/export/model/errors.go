package model

import "errors"

var (
	ErrExportNotFound = errors.New("export not found")
	ErrNotReady       = errors.New("export is not completed yet")
	ErrForeignChapter = errors.New("chapter does not belong to the project")
	// ErrStateChanged: export đã rời trạng thái mà thao tác cần (bị xóa hoặc đã xong)
	ErrStateChanged = errors.New("export state changed")
)
