package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/menu-scraper/internal/model"
	"github.com/MikhailRaia/menu-scraper/internal/pool"
)

const batchSuccessMessage = "Batch processed successfully"

// Values of the "error" field of error responses.
const (
	errMalformedRequest = "Malformed request"
	errValidationFailed = "Validation failed"
	errInternal         = "Internal server error"
	errNotFound         = "Not found"
	errMethodNotAllowed = "Method not allowed"
)

var bufferPool = pool.New(64, func() *bytes.Buffer { return new(bytes.Buffer) })

func writeJSON(w http.ResponseWriter, status int, v any) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: kind, Message: message})
}
