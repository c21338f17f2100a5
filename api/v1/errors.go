package v1

import (
	"errors"
	"net/http"

	"github.com/tinoosan/modelkeep/internal/data"
)

var (
	ErrModelIDCtx = errors.New("model id missing in context")
	ErrWebsocket  = errors.New("websocket upgrade failed")
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var te *data.TransportError
	switch {
	case errors.Is(err, data.ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, data.ErrDownloadInProgress):
		return http.StatusConflict
	case errors.Is(err, data.ErrNothingToDownload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, data.ErrInvalidModelID), errors.Is(err, data.ErrUnsafePath):
		return http.StatusBadRequest
	case errors.As(err, &te):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail records err for the access log and writes a plain-text error.
// Internal errors are not echoed to the client.
func fail(w http.ResponseWriter, err error) {
	markErr(w, err)
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	http.Error(w, msg, code)
}
