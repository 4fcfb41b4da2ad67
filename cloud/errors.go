package cloud

import "errors"

var (
	ErrLocalFileNotFound    = errors.New("local file not found")
	ErrRemoteObjectNotFound = errors.New("object not found in bucket")
	ErrDownloadIncomplete   = errors.New("download incomplete: local file missing")
	ErrDownloadFailed       = errors.New("download failed")
)
