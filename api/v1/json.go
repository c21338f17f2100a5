package v1

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v with the given status. Encoding errors are only
// recorded for the access log since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		markErr(w, err)
	}
}
