package urlhandler

import "errors"

// Errors returned when a target list cannot be loaded at all.
var (
	ErrFileNotFound   = errors.New("target file not found")
	ErrFilePermission = errors.New("permission denied reading target file")
	ErrReadingFile    = errors.New("error reading target file")
	ErrUnsupportedCSV = errors.New("target CSV has no header row")
)
