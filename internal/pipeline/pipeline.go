// Package pipeline composes identity resolution, tenant binding and schema
// selection into a per-request state machine, and exposes the write
// validation and read projection steps that follow authorization.
//
//	Start -> Authenticated -> TenantBound -> Validated|Projected -> Committed
//	  \-> Anonymous (open routes only)        \-> Rejected
package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/auth"
	"github.com/otcheredev/clinical-records-api/internal/metrics"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/projection"
	"github.com/otcheredev/clinical-records-api/internal/tenancy"
	"github.com/otcheredev/clinical-records-api/internal/validation"
)

// Stages after authorization, as reported on rejection
const (
	StageDecode        = "decode"
	StageRequireTenant = "require_tenant"
	StageValidate      = "validate"
	StageLoad          = "load"
	StageCommit        = "commit"
)

// Request is the credential material and route requirement of one request
type Request struct {
	Authorization  string
	RequiresTenant bool
}

// Pipeline runs a fixed, ordered list of stages. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	stages []Stage
}

// New creates the standard pipeline: resolve identity, bind tenant, select schema
func New(resolver *auth.Resolver, binder *tenancy.Binder) *Pipeline {
	return NewWithStages(
		ResolveIdentity(resolver),
		BindTenant(binder),
		SelectSchema(),
	)
}

// NewWithStages creates a pipeline from an explicit stage list
func NewWithStages(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// StageNames returns the stage names in execution order
func (p *Pipeline) StageNames() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name)
	}
	return names
}

// Authorize runs every stage in order and returns the execution. A rejected
// execution carries the classified error in Err.
func (p *Pipeline) Authorize(ctx context.Context, req Request) *Execution {
	ex := &Execution{Request: req, State: StateStart}

	for _, stage := range p.stages {
		if err := stage.Run(ctx, ex); err != nil {
			ex.reject(stage.Name, err)
			return ex
		}
	}

	return ex
}

// ValidateWrite validates a patient write payload for a tenant
func ValidateWrite(payload validation.Payload, tenant *models.Tenant, schema tenancy.Schema) (validation.Payload, error) {
	return validation.ValidatePatient(payload, tenant, schema.SSN)
}

// ProjectRead projects a patient for a tenant
func ProjectRead(p *models.Patient, tenant *models.Tenant, schema tenancy.Schema) map[string]any {
	return projection.Patient(p, tenant, schema.SSN)
}

// Execution is the state of one request moving through the pipeline
type Execution struct {
	Request   Request
	State     State
	Principal *models.Principal
	Tenant    *models.Tenant
	Schema    tenancy.Schema
	Err       *apperr.Error
}

// Rejected reports whether the execution ended in rejection
func (ex *Execution) Rejected() bool {
	return ex.State == StateRejected
}

// TenantScoped reports whether a tenant was bound
func (ex *Execution) TenantScoped() bool {
	return ex.Tenant != nil
}

// ValidatePatient validates a patient write payload against the bound tenant
func (ex *Execution) ValidatePatient(payload validation.Payload) (validation.Payload, error) {
	if err := ex.RequireTenant(); err != nil {
		return nil, err
	}
	accepted, err := ValidateWrite(payload, ex.Tenant, ex.Schema)
	if err != nil {
		ex.reject(StageValidate, err)
		return nil, err
	}
	ex.State = StateValidated
	return accepted, nil
}

// ValidateRecord validates a record write payload against the bound tenant's
// record schema
func (ex *Execution) ValidateRecord(payload validation.Payload) (validation.Payload, error) {
	if err := ex.RequireTenant(); err != nil {
		return nil, err
	}
	accepted, err := validation.ValidateRecord(payload, ex.Schema.Records)
	if err != nil {
		ex.reject(StageValidate, err)
		return nil, err
	}
	ex.State = StateValidated
	return accepted, nil
}

// ProjectPatient projects a patient for the bound tenant
func (ex *Execution) ProjectPatient(p *models.Patient) map[string]any {
	ex.State = StateProjected
	return ProjectRead(p, ex.Tenant, ex.Schema)
}

// ProjectPatients projects a list of patients for the bound tenant
func (ex *Execution) ProjectPatients(patients []models.Patient) []map[string]any {
	ex.State = StateProjected
	return projection.Patients(patients, ex.Tenant, ex.Schema.SSN)
}

// Commit marks the underlying data operation as done
func (ex *Execution) Commit() {
	if ex.State.Terminal() {
		return
	}
	ex.State = StateCommitted
	metrics.PipelineOutcomes.WithLabelValues(StateCommitted.String()).Inc()
}

// RejectAt ends the execution with err, attributed to stage
func (ex *Execution) RejectAt(stage string, err error) {
	ex.reject(stage, err)
}

// RequireTenant rejects the execution when no tenant is bound
func (ex *Execution) RequireTenant() error {
	if ex.Tenant == nil {
		err := apperr.New(apperr.KindTenantMissing, tenancy.TenantMissingMessage)
		ex.reject(StageRequireTenant, err)
		return err
	}
	return nil
}

func (ex *Execution) reject(stage string, err error) {
	if ex.State == StateRejected {
		return
	}
	ex.Err = apperr.As(err)
	ex.State = StateRejected

	metrics.PipelineOutcomes.WithLabelValues(StateRejected.String()).Inc()
	metrics.PipelineRejections.WithLabelValues(string(ex.Err.Kind), stage).Inc()
	for field := range ex.Err.Fields {
		metrics.ValidationViolations.WithLabelValues(field).Inc()
	}

	event := log.Debug()
	if ex.Err.Status() >= 500 {
		event = log.Error()
	}
	event.Err(ex.Err).
		Str("stage", stage).
		Str("kind", string(ex.Err.Kind)).
		Msg("Request rejected")
}
