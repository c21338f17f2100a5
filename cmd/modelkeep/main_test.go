package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tinoosan/modelkeep/internal/client"
	"github.com/tinoosan/modelkeep/internal/config"
	"github.com/tinoosan/modelkeep/internal/data"
)

func TestExitCodeFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{fmt.Errorf("pull: %w", data.ErrModelNotFound), ExitModelNotFound},
		{data.ErrDownloadInProgress, ExitBusy},
		{data.ErrInvalidModelID, ExitInvalidArgs},
		{data.ErrNothingToDownload, ExitInvalidArgs},
		{config.ErrNoAPIToken, ExitInvalidArgs},
		{data.ErrUnsafePath, ExitStorageError},
		{&data.TransportError{Op: "fetch", URL: "http://x", StatusCode: 500}, ExitNetworkError},
		{&client.StatusError{Code: 409}, ExitBusy},
		{&client.StatusError{Code: 404}, ExitModelNotFound},
		{&client.StatusError{Code: 503}, ExitNetworkError},
		{errors.New("boom"), ExitGeneralError},
	}
	for _, c := range cases {
		if got := exitCodeFromError(c.err); got != c.want {
			t.Fatalf("exitCodeFromError(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
