package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

const emailConflictMsg = "patient with this email already exists."

// PatientRepository handles patient database operations. Every read and
// delete is scoped by tenant.
type PatientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Create saves a new patient. A duplicate email yields KindConstraintConflict.
func (r *PatientRepository) Create(ctx context.Context, patient *models.Patient) error {
	if err := r.db.WithContext(ctx).Create(patient).Error; err != nil {
		return classify(err, "create patient", emailConflictMsg)
	}
	return nil
}

// Update saves every column of an existing patient
func (r *PatientRepository) Update(ctx context.Context, patient *models.Patient) error {
	if err := r.db.WithContext(ctx).Save(patient).Error; err != nil {
		return classify(err, "update patient", emailConflictMsg)
	}
	return nil
}

// GetByID retrieves a patient owned by the tenant
func (r *PatientRepository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*models.Patient, error) {
	var patient models.Patient
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&patient).Error; err != nil {
		return nil, classify(err, "get patient", "")
	}
	return &patient, nil
}

// GetByTenantID retrieves the tenant's patients
func (r *PatientRepository) GetByTenantID(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.Patient, error) {
	var patients []models.Patient
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC, id ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&patients).Error; err != nil {
		return nil, classify(err, "get patients", "")
	}
	return patients, nil
}

// Delete removes a patient owned by the tenant together with its records
func (r *PatientRepository) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.Patient{})
		if res.Error != nil {
			return classify(res.Error, "delete patient", "")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, "Not found.")
		}

		if err := tx.Where("patient_id = ?", id).Delete(&models.RigidRecord{}).Error; err != nil {
			return classify(err, "delete rigid records", "")
		}
		if err := tx.Where("patient_id = ?", id).Delete(&models.FlexibleRecord{}).Error; err != nil {
			return classify(err, "delete flexible records", "")
		}
		return nil
	})
}
