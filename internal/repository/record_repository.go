package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

// RecordRepository handles clinical record database operations for both
// record variants. Tenant scoping goes through the owning patient.
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create saves a new record of either variant
func (r *RecordRepository) Create(ctx context.Context, record models.Record) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return classify(err, "create record", "record already exists")
	}
	return nil
}

// GetByID retrieves a record of the given variant whose patient belongs to the tenant
func (r *RecordRepository) GetByID(ctx context.Context, variant models.RecordsType, id, tenantID uuid.UUID) (models.Record, error) {
	record, err := newRecord(variant)
	if err != nil {
		return nil, err
	}

	if err := r.scoped(ctx, variant, tenantID).
		Where(tableOf(variant)+".id = ?", id).
		First(record).Error; err != nil {
		return nil, classify(err, "get record", "")
	}
	return record, nil
}

// List retrieves the tenant's records of the given variant, optionally
// restricted to one patient
func (r *RecordRepository) List(ctx context.Context, variant models.RecordsType, tenantID uuid.UUID, patientID *uuid.UUID) ([]models.Record, error) {
	query := r.scoped(ctx, variant, tenantID).Order(tableOf(variant) + ".created_at ASC")
	if patientID != nil {
		query = query.Where(tableOf(variant)+".patient_id = ?", *patientID)
	}

	var out []models.Record
	switch variant {
	case models.RecordsTypeRigid:
		var records []models.RigidRecord
		if err := query.Find(&records).Error; err != nil {
			return nil, classify(err, "list records", "")
		}
		for i := range records {
			out = append(out, &records[i])
		}
	case models.RecordsTypeFlexible:
		var records []models.FlexibleRecord
		if err := query.Find(&records).Error; err != nil {
			return nil, classify(err, "list records", "")
		}
		for i := range records {
			out = append(out, &records[i])
		}
	default:
		return nil, unknownVariant(variant)
	}
	return out, nil
}

// Delete removes a record of the given variant owned by the tenant
func (r *RecordRepository) Delete(ctx context.Context, variant models.RecordsType, id, tenantID uuid.UUID) error {
	record, err := r.GetByID(ctx, variant, id, tenantID)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(record).Error; err != nil {
		return classify(err, "delete record", "")
	}
	return nil
}

func (r *RecordRepository) scoped(ctx context.Context, variant models.RecordsType, tenantID uuid.UUID) *gorm.DB {
	table := tableOf(variant)
	return r.db.WithContext(ctx).
		Table(table).
		Select(table+".*").
		Joins("JOIN patients ON patients.id = "+table+".patient_id").
		Where("patients.tenant_id = ?", tenantID)
}

func tableOf(variant models.RecordsType) string {
	if variant == models.RecordsTypeFlexible {
		return models.FlexibleRecord{}.TableName()
	}
	return models.RigidRecord{}.TableName()
}

func newRecord(variant models.RecordsType) (models.Record, error) {
	switch variant {
	case models.RecordsTypeRigid:
		return &models.RigidRecord{}, nil
	case models.RecordsTypeFlexible:
		return &models.FlexibleRecord{}, nil
	default:
		return nil, unknownVariant(variant)
	}
}

func unknownVariant(variant models.RecordsType) error {
	return apperr.New(apperr.KindConfiguration, fmt.Sprintf("unknown record variant %q", variant))
}
