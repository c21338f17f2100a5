package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tinoosan/modelkeep/internal/client"
	"github.com/tinoosan/modelkeep/internal/config"
	"github.com/tinoosan/modelkeep/internal/data"
)

// Exit codes returned by the modelkeep binary.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitInvalidArgs   = 2
	ExitModelNotFound = 3
	ExitBusy          = 4
	ExitNetworkError  = 5
	ExitStorageError  = 7
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFromError(err))
	}
}

func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var te *data.TransportError
	var se *client.StatusError
	switch {
	case errors.Is(err, data.ErrModelNotFound):
		return ExitModelNotFound
	case errors.Is(err, data.ErrDownloadInProgress):
		return ExitBusy
	case errors.Is(err, data.ErrInvalidModelID), errors.Is(err, data.ErrNothingToDownload),
		errors.Is(err, config.ErrNoAPIToken):
		return ExitInvalidArgs
	case errors.Is(err, data.ErrUnsafePath):
		return ExitStorageError
	case errors.As(err, &te):
		return ExitNetworkError
	case errors.As(err, &se):
		switch se.Code {
		case 404:
			return ExitModelNotFound
		case 409:
			return ExitBusy
		case 400, 422:
			return ExitInvalidArgs
		}
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}
