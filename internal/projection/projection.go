// Package projection restricts outgoing patient representations to the
// fields a tenant is allowed to see.
package projection

import (
	"maps"

	"github.com/samber/lo"

	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/tenancy"
)

// Project returns the subset of fields named in visible, or every field when
// visible contains "all". Hidden fields are absent from the result, not null.
// The SSN field inactive under ssn is always removed, whatever visible says.
func Project(fields map[string]any, visible models.VisibleFields, ssn tenancy.SSNSchema) map[string]any {
	var out map[string]any
	if visible.All() {
		out = maps.Clone(fields)
	} else {
		out = lo.PickByKeys(fields, visible)
	}
	if out == nil {
		out = map[string]any{}
	}

	delete(out, ssn.InactiveField())
	return out
}

// Patient projects a persisted patient for the given tenant
func Patient(p *models.Patient, tenant *models.Tenant, ssn tenancy.SSNSchema) map[string]any {
	return Project(p.Fields(), tenant.PatientVisibleFields, ssn)
}

// Patients projects a list of patients, preserving order
func Patients(patients []models.Patient, tenant *models.Tenant, ssn tenancy.SSNSchema) []map[string]any {
	out := make([]map[string]any, 0, len(patients))
	for i := range patients {
		out = append(out, Patient(&patients[i], tenant, ssn))
	}
	return out
}
