package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record field names as they appear at the API boundary
const (
	FieldPatient    = "patient"
	FieldDiagnosis  = "diagnosis"
	FieldTreatment  = "treatment"
	FieldDoctorName = "doctor_name"
	FieldNotes      = "notes"
	FieldRecordType = "record_type"
	FieldData       = "data"
)

// RigidRecordFields are the writable fields of a rigid record
var RigidRecordFields = []string{FieldPatient, FieldDiagnosis, FieldTreatment, FieldDoctorName, FieldNotes}

// FlexibleRecordFields are the writable fields of a flexible record
var FlexibleRecordFields = []string{FieldPatient, FieldRecordType, FieldData}

// Record is a clinical record belonging to a patient. RigidRecord and
// FlexibleRecord are the two variants; a tenant uses exactly one.
type Record interface {
	RecordID() uuid.UUID
	PatientRef() uuid.UUID
	Variant() RecordsType
}

// RigidRecord has a fixed clinical shape
type RigidRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"patient"`
	Diagnosis  string    `gorm:"type:text" json:"diagnosis"`
	Treatment  string    `gorm:"type:text" json:"treatment"`
	DoctorName string    `gorm:"type:varchar(255)" json:"doctor_name"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (RigidRecord) TableName() string {
	return "rigid_records"
}

// BeforeCreate hook
func (r *RigidRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *RigidRecord) RecordID() uuid.UUID   { return r.ID }
func (r *RigidRecord) PatientRef() uuid.UUID { return r.PatientID }
func (r *RigidRecord) Variant() RecordsType  { return RecordsTypeRigid }

// FlexibleRecord stores a record type label and arbitrary key-value data
type FlexibleRecord struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"patient"`
	RecordType string         `gorm:"type:varchar(50);not null" json:"record_type"`
	Data       map[string]any `gorm:"type:jsonb;serializer:json" json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName overrides the table name
func (FlexibleRecord) TableName() string {
	return "flexible_records"
}

// BeforeCreate hook
func (r *FlexibleRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	return nil
}

func (r *FlexibleRecord) RecordID() uuid.UUID   { return r.ID }
func (r *FlexibleRecord) PatientRef() uuid.UUID { return r.PatientID }
func (r *FlexibleRecord) Variant() RecordsType  { return RecordsTypeFlexible }
