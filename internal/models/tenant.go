package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantType represents the kind of organization a tenant is
type TenantType string

const (
	TenantTypeHospital  TenantType = "hospital"
	TenantTypeClinic    TenantType = "clinic"
	TenantTypeMobileApp TenantType = "mobile_app"
)

// RecordsType selects the clinical record shape used by a tenant
type RecordsType string

const (
	RecordsTypeRigid    RecordsType = "rigid"
	RecordsTypeFlexible RecordsType = "flexible"
)

// VisibleAll is the sentinel entry granting visibility of every patient field
const VisibleAll = "all"

// VisibleFields is the list of patient fields a tenant may read.
// It is either ["all"] or an explicit list of field names.
type VisibleFields []string

// All reports whether the list contains the "all" sentinel
func (v VisibleFields) All() bool {
	for _, f := range v {
		if f == VisibleAll {
			return true
		}
	}
	return false
}

// Tenant represents an organization (hospital, clinic, mobile app) and the
// configuration that governs its patients
type Tenant struct {
	ID                   uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name                 string        `gorm:"type:varchar(255);not null" json:"name"`
	Premium              bool          `gorm:"default:false" json:"premium"`
	Type                 TenantType    `gorm:"type:varchar(50);not null" json:"type"`
	AllowPartialPatients bool          `gorm:"not null" json:"allow_partial_patients"`
	PatientVisibleFields VisibleFields `gorm:"type:jsonb;serializer:json" json:"patient_visible_fields"`
	PatientRecordsType   RecordsType   `gorm:"type:varchar(50);not null" json:"patient_records_type"`
	SSNHIPAAMandatory    bool          `gorm:"column:ssn_hipaa_mandatory;default:false" json:"ssn_hipaa_mandatory"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTenant returns a tenant with the documented defaults: partial patients
// allowed, every field visible, rigid records and plain SSNs
func NewTenant(name string, tenantType TenantType) *Tenant {
	return &Tenant{
		Name:                 name,
		Type:                 tenantType,
		AllowPartialPatients: true,
		PatientVisibleFields: VisibleFields{VisibleAll},
		PatientRecordsType:   RecordsTypeRigid,
	}
}

// TableName overrides the table name
func (Tenant) TableName() string {
	return "tenants"
}

// BeforeCreate hook
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
