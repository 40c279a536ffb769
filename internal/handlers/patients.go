package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/otcheredev/clinical-records-api/internal/pipeline"
	"github.com/otcheredev/clinical-records-api/internal/services"
)

type PatientHandler struct {
	patientService *services.PatientService
}

func NewPatientHandler(patientService *services.PatientService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
	}
}

// Create creates a patient for the caller's tenant
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	patient, err := h.patientService.Create(r.Context(), ex, payload, auditMetadata(r))
	if err != nil {
		writeError(w, err)
		return
	}

	log.Debug().Str("tenant_id", ex.Tenant.ID.String()).Msg("Patient created")
	writeJSON(w, http.StatusCreated, patient)
}

// List lists the caller's tenant patients, paged by limit and offset
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	ex, ok := execution(w, r)
	if !ok {
		return
	}

	patients, err := h.patientService.List(r.Context(), ex, queryInt(r, "limit"), queryInt(r, "offset"), auditMetadata(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patients)
}

// Get retrieves a single patient
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	patient, err := h.patientService.Get(r.Context(), ex, id, auditMetadata(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patient)
}

// Update replaces a patient
func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	payload, err := decodePayload(w, r)
	if err != nil {
		ex.RejectAt(pipeline.StageDecode, err)
		writeError(w, err)
		return
	}

	patient, err := h.patientService.Update(r.Context(), ex, id, payload, auditMetadata(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, patient)
}

// Delete deletes a patient and its records
func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.patientService.Delete(r.Context(), ex, id, auditMetadata(r)); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
