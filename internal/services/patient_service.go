package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/otcheredev/clinical-records-api/internal/audit"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
	"github.com/otcheredev/clinical-records-api/internal/repository"
	"github.com/otcheredev/clinical-records-api/internal/tenancy"
	"github.com/otcheredev/clinical-records-api/internal/validation"
)

const patientModel = "Patient"

// PatientService runs patient operations on an authorized execution. Writes
// are validated before they reach the repository and reads are projected
// before they leave.
type PatientService struct {
	patients *repository.PatientRepository
	audit    audit.Sink
}

// NewPatientService creates a new patient service
func NewPatientService(patients *repository.PatientRepository, sink audit.Sink) *PatientService {
	return &PatientService{
		patients: patients,
		audit:    sink,
	}
}

// Create validates and stores a new patient for the bound tenant
func (s *PatientService) Create(ctx context.Context, ex *pipeline.Execution, payload validation.Payload, meta map[string]any) (map[string]any, error) {
	accepted, err := ex.ValidatePatient(payload)
	if err != nil {
		return nil, err
	}

	patient := &models.Patient{TenantID: ex.Tenant.ID}
	applyPatient(patient, accepted, ex.Schema.SSN)

	if err := s.patients.Create(ctx, patient); err != nil {
		ex.RejectAt(pipeline.StageCommit, err)
		return nil, err
	}

	record(ctx, s.audit, ex, models.AuditActionCreate, patientModel, &patient.ID, meta)
	out := ex.ProjectPatient(patient)
	ex.Commit()
	return out, nil
}

// Get returns one projected patient of the bound tenant
func (s *PatientService) Get(ctx context.Context, ex *pipeline.Execution, id uuid.UUID, meta map[string]any) (map[string]any, error) {
	if err := ex.RequireTenant(); err != nil {
		return nil, err
	}

	patient, err := s.patients.GetByID(ctx, id, ex.Tenant.ID)
	if err != nil {
		ex.RejectAt(pipeline.StageLoad, err)
		return nil, err
	}

	record(ctx, s.audit, ex, models.AuditActionView, patientModel, &patient.ID, meta)
	out := ex.ProjectPatient(patient)
	ex.Commit()
	return out, nil
}

// List returns the bound tenant's projected patients
func (s *PatientService) List(ctx context.Context, ex *pipeline.Execution, limit, offset int, meta map[string]any) ([]map[string]any, error) {
	if err := ex.RequireTenant(); err != nil {
		return nil, err
	}

	patients, err := s.patients.GetByTenantID(ctx, ex.Tenant.ID, limit, offset)
	if err != nil {
		ex.RejectAt(pipeline.StageLoad, err)
		return nil, err
	}

	record(ctx, s.audit, ex, models.AuditActionList, patientModel, nil, meta)
	out := ex.ProjectPatients(patients)
	ex.Commit()
	return out, nil
}

// Update replaces the supplied fields of an existing patient. The payload is
// validated with the same tenant rules as a create.
func (s *PatientService) Update(ctx context.Context, ex *pipeline.Execution, id uuid.UUID, payload validation.Payload, meta map[string]any) (map[string]any, error) {
	if err := ex.RequireTenant(); err != nil {
		return nil, err
	}

	patient, err := s.patients.GetByID(ctx, id, ex.Tenant.ID)
	if err != nil {
		ex.RejectAt(pipeline.StageLoad, err)
		return nil, err
	}

	accepted, err := ex.ValidatePatient(payload)
	if err != nil {
		return nil, err
	}
	applyPatient(patient, accepted, ex.Schema.SSN)

	if err := s.patients.Update(ctx, patient); err != nil {
		ex.RejectAt(pipeline.StageCommit, err)
		return nil, err
	}

	record(ctx, s.audit, ex, models.AuditActionUpdate, patientModel, &patient.ID, meta)
	out := ex.ProjectPatient(patient)
	ex.Commit()
	return out, nil
}

// Delete removes a patient of the bound tenant and its records
func (s *PatientService) Delete(ctx context.Context, ex *pipeline.Execution, id uuid.UUID, meta map[string]any) error {
	if err := ex.RequireTenant(); err != nil {
		return err
	}

	if err := s.patients.Delete(ctx, id, ex.Tenant.ID); err != nil {
		ex.RejectAt(pipeline.StageCommit, err)
		return err
	}

	record(ctx, s.audit, ex, models.AuditActionDelete, patientModel, &id, meta)
	ex.Commit()
	return nil
}

// applyPatient copies accepted fields onto the patient. The inactive SSN
// representation is always cleared.
func applyPatient(p *models.Patient, accepted validation.Payload, ssn tenancy.SSNSchema) {
	if v, ok := accepted[models.FieldFirstName]; ok {
		p.FirstName = stringValue(v)
	}
	if v, ok := accepted[models.FieldLastName]; ok {
		p.LastName = stringValue(v)
	}
	if v, ok := accepted[models.FieldEmail]; ok {
		p.Email = stringValue(v)
	}

	switch ssn {
	case tenancy.SSNSchemaStructured:
		p.SSN = nil
		if v, ok := accepted[models.FieldSSNData]; ok {
			p.SSNData = ssnData(v)
		}
	default:
		p.SSNData = nil
		if v, ok := accepted[models.FieldSSN]; ok {
			if s := stringValue(v); s != "" {
				p.SSN = &s
			} else {
				p.SSN = nil
			}
		}
	}
}

func ssnData(raw any) *models.SSNData {
	data, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return &models.SSNData{
		Number:           stringValue(data[models.SSNDataNumber]),
		Verified:         data[models.SSNDataVerified],
		VerificationDate: data[models.SSNDataVerificationDate],
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
