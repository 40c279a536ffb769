package services

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/audit"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
	"github.com/otcheredev/clinical-records-api/internal/repository"
	"github.com/otcheredev/clinical-records-api/internal/tenancy"
	"github.com/otcheredev/clinical-records-api/internal/validation"
)

// RecordService runs clinical record operations. The record variant is always
// the one selected for the bound tenant; the other variant is unreachable.
type RecordService struct {
	records  *repository.RecordRepository
	patients *repository.PatientRepository
	audit    audit.Sink
}

// NewRecordService creates a new record service
func NewRecordService(records *repository.RecordRepository, patients *repository.PatientRepository, sink audit.Sink) *RecordService {
	return &RecordService{
		records:  records,
		patients: patients,
		audit:    sink,
	}
}

// Create validates and stores a record for a patient of the bound tenant
func (s *RecordService) Create(ctx context.Context, ex *pipeline.Execution, payload validation.Payload, meta map[string]any) (models.Record, error) {
	accepted, err := ex.ValidateRecord(payload)
	if err != nil {
		return nil, err
	}

	patientID, err := uuid.Parse(stringValue(accepted[models.FieldPatient]))
	if err != nil {
		err = apperr.Validation(map[string]string{models.FieldPatient: "Must be a valid UUID."})
		ex.RejectAt(pipeline.StageValidate, err)
		return nil, err
	}

	if _, err := s.patients.GetByID(ctx, patientID, ex.Tenant.ID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			err = apperr.Validation(map[string]string{
				models.FieldPatient: fmt.Sprintf("Invalid pk %q - object does not exist.", patientID),
			})
		}
		ex.RejectAt(pipeline.StageValidate, err)
		return nil, err
	}

	rec, err := buildRecord(ex.Schema.Records, patientID, accepted)
	if err != nil {
		ex.RejectAt(pipeline.StageValidate, err)
		return nil, err
	}

	if err := s.records.Create(ctx, rec); err != nil {
		ex.RejectAt(pipeline.StageCommit, err)
		return nil, err
	}

	id := rec.RecordID()
	record(ctx, s.audit, ex, models.AuditActionCreate, modelName(rec.Variant()), &id, withPatient(meta, rec))
	ex.Commit()
	return rec, nil
}

// Get returns one record of the bound tenant
func (s *RecordService) Get(ctx context.Context, ex *pipeline.Execution, id uuid.UUID, meta map[string]any) (models.Record, error) {
	if err := ex.RequireTenant(); err != nil {
		return nil, err
	}
	variant := variantOf(ex.Schema.Records)

	rec, err := s.records.GetByID(ctx, variant, id, ex.Tenant.ID)
	if err != nil {
		ex.RejectAt(pipeline.StageLoad, err)
		return nil, err
	}

	record(ctx, s.audit, ex, models.AuditActionView, modelName(variant), &id, withPatient(meta, rec))
	ex.Commit()
	return rec, nil
}

// List returns the bound tenant's records, optionally for one patient
func (s *RecordService) List(ctx context.Context, ex *pipeline.Execution, patientID *uuid.UUID, meta map[string]any) ([]models.Record, error) {
	if err := ex.RequireTenant(); err != nil {
		return nil, err
	}
	variant := variantOf(ex.Schema.Records)

	recs, err := s.records.List(ctx, variant, ex.Tenant.ID, patientID)
	if err != nil {
		ex.RejectAt(pipeline.StageLoad, err)
		return nil, err
	}
	if recs == nil {
		recs = []models.Record{}
	}

	record(ctx, s.audit, ex, models.AuditActionList, modelName(variant), nil, meta)
	ex.Commit()
	return recs, nil
}

// Delete removes a record of the bound tenant
func (s *RecordService) Delete(ctx context.Context, ex *pipeline.Execution, id uuid.UUID, meta map[string]any) error {
	if err := ex.RequireTenant(); err != nil {
		return err
	}
	variant := variantOf(ex.Schema.Records)

	if err := s.records.Delete(ctx, variant, id, ex.Tenant.ID); err != nil {
		ex.RejectAt(pipeline.StageCommit, err)
		return err
	}

	record(ctx, s.audit, ex, models.AuditActionDelete, modelName(variant), &id, meta)
	ex.Commit()
	return nil
}

func buildRecord(schema tenancy.RecordSchema, patientID uuid.UUID, accepted validation.Payload) (models.Record, error) {
	switch schema {
	case tenancy.RecordSchemaRigid:
		return &models.RigidRecord{
			PatientID:  patientID,
			Diagnosis:  stringValue(accepted[models.FieldDiagnosis]),
			Treatment:  stringValue(accepted[models.FieldTreatment]),
			DoctorName: stringValue(accepted[models.FieldDoctorName]),
			Notes:      stringValue(accepted[models.FieldNotes]),
		}, nil
	case tenancy.RecordSchemaFlexible:
		data, _ := accepted[models.FieldData].(map[string]any)
		return &models.FlexibleRecord{
			PatientID:  patientID,
			RecordType: stringValue(accepted[models.FieldRecordType]),
			Data:       data,
		}, nil
	default:
		return nil, apperr.New(apperr.KindConfiguration, fmt.Sprintf("unknown record schema %d", schema))
	}
}

// withPatient adds the owning patient to a copy of the audit metadata
func withPatient(meta map[string]any, rec models.Record) map[string]any {
	out := maps.Clone(meta)
	if out == nil {
		out = make(map[string]any, 1)
	}
	out["patient_id"] = rec.PatientRef().String()
	return out
}

func variantOf(schema tenancy.RecordSchema) models.RecordsType {
	return models.RecordsType(schema.String())
}

func modelName(variant models.RecordsType) string {
	if variant == models.RecordsTypeFlexible {
		return "FlexibleRecord"
	}
	return "RigidRecord"
}
