package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
	"github.com/otcheredev/clinical-records-api/internal/services"
)

type RecordHandler struct {
	recordService *services.RecordService
}

func NewRecordHandler(recordService *services.RecordService) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
	}
}

// Create creates a record in the caller's tenant record shape
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	ex, ok := execution(w, r)
	if !ok {
		return
	}

	payload, err := decodePayload(w, r)
	if err != nil {
		ex.RejectAt(pipeline.StageDecode, err)
		writeError(w, err)
		return
	}

	rec, err := h.recordService.Create(r.Context(), ex, payload, auditMetadata(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// List lists the caller's tenant records, optionally filtered by ?patient=
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	ex, ok := execution(w, r)
	if !ok {
		return
	}

	var patientID *uuid.UUID
	if raw := r.URL.Query().Get(models.FieldPatient); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			err := apperr.Validation(map[string]string{models.FieldPatient: "Must be a valid UUID."})
			ex.RejectAt(pipeline.StageDecode, err)
			writeError(w, err)
			return
		}
		patientID = &id
	}

	recs, err := h.recordService.List(r.Context(), ex, patientID, auditMetadata(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recs)
}

// Get retrieves a single record
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	ex, ok := execution(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		ex.RejectAt(pipeline.StageDecode, err)
		writeError(w, err)
		return
	}

	rec, err := h.recordService.Get(r.Context(), ex, id, auditMetadata(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// Delete deletes a record
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ex, ok := execution(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		ex.RejectAt(pipeline.StageDecode, err)
		writeError(w, err)
		return
	}

	if err := h.recordService.Delete(r.Context(), ex, id, auditMetadata(r)); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
