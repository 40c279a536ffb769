package handlers

import (
	"net/http"

	"github.com/otcheredev/clinical-records-api/internal/models"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

type sessionTenant struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Type                 models.TenantType    `json:"type"`
	Premium              bool                 `json:"premium"`
	RecordsSchema        string               `json:"records_schema"`
	SSNSchema            string               `json:"ssn_schema"`
	PatientVisibleFields models.VisibleFields `json:"patient_visible_fields"`
}

type sessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	UserID        string         `json:"user_id,omitempty"`
	Username      string         `json:"username,omitempty"`
	Tenant        *sessionTenant `json:"tenant"`
}

// Get reports who the caller is and which tenant schema applies to them.
// Anonymous callers get authenticated=false.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ex, ok := execution(w, r)
	if !ok {
		return
	}

	var resp sessionResponse
	if ex.Principal != nil {
		resp.Authenticated = true
		resp.UserID = ex.Principal.UserID.String()
		resp.Username = ex.Principal.Username
	}
	if ex.TenantScoped() {
		t := ex.Tenant
		resp.Tenant = &sessionTenant{
			ID:                   t.ID.String(),
			Name:                 t.Name,
			Type:                 t.Type,
			Premium:              t.Premium,
			RecordsSchema:        ex.Schema.Records.String(),
			SSNSchema:            ex.Schema.SSN.String(),
			PatientVisibleFields: t.PatientVisibleFields,
		}
	}

	ex.Commit()
	writeJSON(w, http.StatusOK, resp)
}
