package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient field names as they appear at the API boundary
const (
	FieldID        = "id"
	FieldTenant    = "tenant"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldSSN       = "ssn"
	FieldSSNData   = "ssn_data"
)

// PatientFields is the fixed, ordered field list of the patient representation
var PatientFields = []string{
	FieldID,
	FieldTenant,
	FieldFirstName,
	FieldLastName,
	FieldSSN,
	FieldSSNData,
	FieldEmail,
}

// SSNData keys
const (
	SSNDataNumber           = "number"
	SSNDataVerified         = "verified"
	SSNDataVerificationDate = "verification_date"
)

// SSNDataKeys lists the exact key set of a structured SSN
var SSNDataKeys = []string{SSNDataNumber, SSNDataVerified, SSNDataVerificationDate}

// SSNData is the HIPAA-structured SSN representation. Verified and
// VerificationDate keep whatever JSON value the client supplied.
type SSNData struct {
	Number           string `json:"number"`
	Verified         any    `json:"verified"`
	VerificationDate any    `json:"verification_date"`
}

// Patient represents a tenant's patient
type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant"`
	FirstName string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100)" json:"last_name"`
	SSN       *string   `gorm:"type:varchar(20)" json:"ssn"`
	SSNData   *SSNData  `gorm:"type:jsonb;serializer:json" json:"ssn_data"`
	Email     string    `gorm:"type:varchar(254);not null;uniqueIndex" json:"email"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName overrides the table name
func (Patient) TableName() string {
	return "patients"
}

// BeforeCreate hook
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Fields returns the patient as a field map keyed by PatientFields
func (p *Patient) Fields() map[string]any {
	fields := map[string]any{
		FieldID:        p.ID.String(),
		FieldTenant:    p.TenantID.String(),
		FieldFirstName: p.FirstName,
		FieldLastName:  p.LastName,
		FieldEmail:     p.Email,
		FieldSSN:       nil,
		FieldSSNData:   nil,
	}
	if p.SSN != nil {
		fields[FieldSSN] = *p.SSN
	}
	if p.SSNData != nil {
		fields[FieldSSNData] = map[string]any{
			SSNDataNumber:           p.SSNData.Number,
			SSNDataVerified:         p.SSNData.Verified,
			SSNDataVerificationDate: p.SSNData.VerificationDate,
		}
	}
	return fields
}
