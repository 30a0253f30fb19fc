package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcleod/redpost/accounts"
	"github.com/jmcleod/redpost/client"
	"github.com/jmcleod/redpost/publish"
	"github.com/jmcleod/redpost/sign"
	"github.com/jmcleod/redpost/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	var validationErr *publish.ValidationError
	var platformErr *client.PlatformError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrInvalidCookieFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, client.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrScopeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sign.ErrOracleUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &platformErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
