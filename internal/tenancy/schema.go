package tenancy

import (
	"fmt"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

// RecordSchema is the record representation used by a tenant
type RecordSchema int

const (
	RecordSchemaRigid RecordSchema = iota + 1
	RecordSchemaFlexible
)

func (s RecordSchema) String() string {
	switch s {
	case RecordSchemaRigid:
		return string(models.RecordsTypeRigid)
	case RecordSchemaFlexible:
		return string(models.RecordsTypeFlexible)
	default:
		return "unknown"
	}
}

// SSNSchema is the authoritative SSN representation used by a tenant
type SSNSchema int

const (
	SSNSchemaPlain SSNSchema = iota + 1
	SSNSchemaStructured
)

func (s SSNSchema) String() string {
	switch s {
	case SSNSchemaPlain:
		return "plain"
	case SSNSchemaStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// ActiveField returns the patient field holding the authoritative SSN
func (s SSNSchema) ActiveField() string {
	if s == SSNSchemaStructured {
		return models.FieldSSNData
	}
	return models.FieldSSN
}

// InactiveField returns the patient field that must never be stored or shown
func (s SSNSchema) InactiveField() string {
	if s == SSNSchemaStructured {
		return models.FieldSSN
	}
	return models.FieldSSNData
}

// Schema is the pair of representation tags selected for a tenant
type Schema struct {
	Records RecordSchema
	SSN     SSNSchema
}

// Select derives the schema tags from a tenant configuration. An unknown
// patient_records_type is a configuration error; no default is chosen.
func Select(t *models.Tenant) (Schema, error) {
	var s Schema

	switch t.PatientRecordsType {
	case models.RecordsTypeRigid:
		s.Records = RecordSchemaRigid
	case models.RecordsTypeFlexible:
		s.Records = RecordSchemaFlexible
	default:
		return Schema{}, apperr.New(apperr.KindConfiguration,
			fmt.Sprintf("tenant %s has unrecognized patient_records_type %q", t.ID, t.PatientRecordsType))
	}

	if t.SSNHIPAAMandatory {
		s.SSN = SSNSchemaStructured
	} else {
		s.SSN = SSNSchemaPlain
	}

	return s, nil
}
