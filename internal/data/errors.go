package data

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotFound      = errors.New("model not found")
	ErrNothingToDownload  = errors.New("no files to download")
	ErrDownloadInProgress = errors.New("download already in progress")
	ErrInvalidModelID     = errors.New("invalid model id")
	ErrUnsafePath         = errors.New("path escapes models directory")
)

// TransportError is a network or HTTP failure during a probe or a fetch.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: http %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
