package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

type errorRes struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("could not write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorRes{Error: msg})
}

func writeParseError(err error, w http.ResponseWriter) {
	if errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "missing body")
		return
	}
	writeError(w, http.StatusBadRequest, "could not read body: "+err.Error())
}
