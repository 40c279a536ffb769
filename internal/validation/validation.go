// Package validation applies tenant-conditional rules to write payloads.
//
// Every rule runs on every call; violations are collected per field and
// returned together as a single apperr validation failure.
package validation

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/tenancy"
)

// Payload is a decoded JSON write body
type Payload map[string]any

const (
	msgRequired     = "This field is required."
	msgNotString    = "Not a valid string."
	msgInvalidEmail = "Enter a valid email address."
	msgNotObject    = "Expected an object."
	msgInvalidUUID  = "Must be a valid UUID."
)

var maxLengths = map[string]int{
	models.FieldFirstName:  100,
	models.FieldLastName:   100,
	models.FieldSSN:        20,
	models.FieldEmail:      254,
	models.FieldDoctorName: 255,
	models.FieldRecordType: 50,
}

type violations map[string]string

func (v violations) add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return apperr.Validation(v)
}

// ValidatePatient checks a patient write payload against the tenant's rules.
// The returned payload holds only known patient fields; the SSN field that is
// inactive under ssn is dropped.
func ValidatePatient(payload Payload, tenant *models.Tenant, ssn tenancy.SSNSchema) (Payload, error) {
	v := violations{}

	required := []string{models.FieldEmail}
	if !tenant.AllowPartialPatients {
		required = append(required, models.FieldFirstName, models.FieldLastName, ssn.ActiveField())
	}
	for _, field := range required {
		if isMissing(payload, field) {
			v.add(field, msgRequired)
		}
	}

	stringFields := []string{models.FieldFirstName, models.FieldLastName, models.FieldEmail}
	if ssn == tenancy.SSNSchemaPlain {
		stringFields = append(stringFields, models.FieldSSN)
	}
	for _, field := range stringFields {
		checkString(v, payload, field)
	}

	if email, ok := payload[models.FieldEmail].(string); ok && email != "" {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			v.add(models.FieldEmail, msgInvalidEmail)
		}
	}

	if ssn == tenancy.SSNSchemaStructured && !isMissing(payload, models.FieldSSNData) {
		checkSSNData(v, payload[models.FieldSSNData])
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	accepted := Payload(lo.PickByKeys(payload, []string{
		models.FieldFirstName,
		models.FieldLastName,
		models.FieldEmail,
		ssn.ActiveField(),
	}))
	if data, ok := accepted[models.FieldSSNData].(map[string]any); ok {
		data = lo.PickByKeys(data, models.SSNDataKeys)
		if number, ok := ssnNumber(data[models.SSNDataNumber]); ok {
			data[models.SSNDataNumber] = number
		}
		accepted[models.FieldSSNData] = data
	}
	return accepted, nil
}

// ValidateRecord checks a record write payload against the tenant's record
// schema. Fields belonging to the other variant are rejected by name.
func ValidateRecord(payload Payload, schema tenancy.RecordSchema) (Payload, error) {
	v := violations{}

	var own, foreign []string
	switch schema {
	case tenancy.RecordSchemaRigid:
		own, foreign = models.RigidRecordFields, models.FlexibleRecordFields
	case tenancy.RecordSchemaFlexible:
		own, foreign = models.FlexibleRecordFields, models.RigidRecordFields
	default:
		return nil, apperr.New(apperr.KindConfiguration, fmt.Sprintf("unknown record schema %d", schema))
	}

	for _, field := range foreign {
		if lo.Contains(own, field) {
			continue
		}
		if _, present := payload[field]; present {
			v.add(field, fmt.Sprintf("Not accepted for %s records.", schema))
		}
	}

	if isMissing(payload, models.FieldPatient) {
		v.add(models.FieldPatient, msgRequired)
	} else if !isUUID(payload[models.FieldPatient]) {
		v.add(models.FieldPatient, msgInvalidUUID)
	}

	switch schema {
	case tenancy.RecordSchemaRigid:
		if isMissing(payload, models.FieldDiagnosis) {
			v.add(models.FieldDiagnosis, msgRequired)
		}
		for _, field := range []string{models.FieldDiagnosis, models.FieldTreatment, models.FieldDoctorName, models.FieldNotes} {
			checkString(v, payload, field)
		}
	case tenancy.RecordSchemaFlexible:
		if isMissing(payload, models.FieldRecordType) {
			v.add(models.FieldRecordType, msgRequired)
		}
		checkString(v, payload, models.FieldRecordType)
		if raw, present := payload[models.FieldData]; present && raw != nil {
			if _, ok := raw.(map[string]any); !ok {
				v.add(models.FieldData, msgNotObject)
			}
		}
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	return Payload(lo.PickByKeys(payload, own)), nil
}

// isMissing treats absent keys, null and the empty string as missing
func isMissing(payload Payload, field string) bool {
	raw, present := payload[field]
	if !present || raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && s == ""
}

func checkString(v violations, payload Payload, field string) {
	raw, present := payload[field]
	if !present || raw == nil {
		return
	}
	s, ok := raw.(string)
	if !ok {
		v.add(field, msgNotString)
		return
	}
	if limit, limited := maxLengths[field]; limited && len([]rune(s)) > limit {
		v.add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", limit))
	}
}

// checkSSNData requires an object with exactly number, verified and
// verification_date, where number is a non-empty string or a JSON number
func checkSSNData(v violations, raw any) {
	data, ok := raw.(map[string]any)
	if !ok {
		v.add(models.FieldSSNData, msgNotObject)
		return
	}

	keys := lo.Keys(data)
	missing, extra := lo.Difference(models.SSNDataKeys, keys)
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, "missing keys: "+strings.Join(missing, ", "))
		}
		if len(extra) > 0 {
			parts = append(parts, "unexpected keys: "+strings.Join(extra, ", "))
		}
		v.add(models.FieldSSNData, fmt.Sprintf("Must contain exactly %s (%s).",
			strings.Join(models.SSNDataKeys, ", "), strings.Join(parts, "; ")))
		return
	}

	number, ok := ssnNumber(data[models.SSNDataNumber])
	if !ok || number == "" {
		v.add(models.FieldSSNData, "ssn_data.number must be a non-empty string or number.")
		return
	}
	if len(number) > maxLengths[models.FieldSSN] {
		v.add(models.FieldSSNData, fmt.Sprintf("ssn_data.number has more than %d characters.", maxLengths[models.FieldSSN]))
	}
}

// ssnNumber normalizes ssn_data.number to its string form
func ssnNumber(raw any) (string, bool) {
	switch n := raw.(type) {
	case string:
		return n, true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case json.Number:
		return n.String(), true
	default:
		return "", false
	}
}

func isUUID(raw any) bool {
	s, ok := raw.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
