package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/audit"
	"github.com/otcheredev/clinical-records-api/internal/middleware"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
	"github.com/otcheredev/clinical-records-api/internal/validation"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("trailing data after JSON value")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	middleware.WriteError(w, err)
}

// execution returns the authorized execution stored by the Authorize middleware
func execution(w http.ResponseWriter, r *http.Request) (*pipeline.Execution, bool) {
	ex, ok := middleware.GetExecution(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Route served without pipeline execution")
		writeError(w, apperr.New(apperr.KindInternal, "Internal server error."))
		return nil, false
	}
	return ex, true
}

// decodePayload reads a body holding exactly one JSON object
func decodePayload(w http.ResponseWriter, r *http.Request) (validation.Payload, error) {
	var payload validation.Payload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.Payload{}, nil
		}
		return nil, apperr.Wrap(apperr.KindValidationFailed, "JSON parse error - "+err.Error(), err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, apperr.Wrap(apperr.KindValidationFailed, "JSON parse error - unexpected data after JSON object", errTrailingData)
	}
	if payload == nil {
		payload = validation.Payload{}
	}
	return payload, nil
}

// pathID parses the {id} URL parameter. A malformed id cannot match any row.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindNotFound, "Not found.")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func auditMetadata(r *http.Request) map[string]any {
	return audit.Metadata(r.URL.Path, r.Method, r.URL.Query())
}
