// Package admin implements the operator commands of recordsctl: tenant
// configuration, user provisioning and audit trail inspection.
package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/repository"
	"github.com/otcheredev/clinical-records-api/internal/tenancy"
)

var tenantTypes = []models.TenantType{
	models.TenantTypeHospital,
	models.TenantTypeClinic,
	models.TenantTypeMobileApp,
}

// TenantChanges lists the tenant settings to change. Nil fields are left as they are.
type TenantChanges struct {
	Name                 *string
	Type                 *models.TenantType
	Premium              *bool
	AllowPartialPatients *bool
	SSNHIPAAMandatory    *bool
	RecordsType          *models.RecordsType
	VisibleFields        *models.VisibleFields
}

func (c TenantChanges) apply(t *models.Tenant) {
	if c.Name != nil {
		t.Name = *c.Name
	}
	if c.Type != nil {
		t.Type = *c.Type
	}
	if c.Premium != nil {
		t.Premium = *c.Premium
	}
	if c.AllowPartialPatients != nil {
		t.AllowPartialPatients = *c.AllowPartialPatients
	}
	if c.SSNHIPAAMandatory != nil {
		t.SSNHIPAAMandatory = *c.SSNHIPAAMandatory
	}
	if c.RecordsType != nil {
		t.PatientRecordsType = *c.RecordsType
	}
	if c.VisibleFields != nil {
		t.PatientVisibleFields = *c.VisibleFields
	}
}

// Service runs administrative operations
type Service struct {
	tenants *repository.TenantStore
	users   *repository.UserRepository
	audit   *repository.AuditRepository
}

// NewService creates a new admin service
func NewService(tenants *repository.TenantStore, users *repository.UserRepository, audit *repository.AuditRepository) *Service {
	return &Service{
		tenants: tenants,
		users:   users,
		audit:   audit,
	}
}

// CreateTenant creates a tenant from the defaults of models.NewTenant plus changes
func (s *Service) CreateTenant(ctx context.Context, name string, changes TenantChanges) (*models.Tenant, error) {
	tenant := models.NewTenant(name, models.TenantTypeHospital)
	changes.apply(tenant)
	if err := checkTenant(tenant); err != nil {
		return nil, err
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Tenant returns the stored configuration of a tenant
func (s *Service) Tenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenants.Get(ctx, id)
}

// UpdateTenant applies changes to a tenant. The cached snapshot is dropped so
// the next request is validated and projected with the new configuration.
func (s *Service) UpdateTenant(ctx context.Context, id uuid.UUID, changes TenantChanges) (*models.Tenant, error) {
	tenant, err := s.tenants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	changes.apply(tenant)
	if err := checkTenant(tenant); err != nil {
		return nil, err
	}
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// FlushTenantCache drops every cached tenant snapshot
func (s *Service) FlushTenantCache(ctx context.Context) error {
	return s.tenants.Flush(ctx)
}

// CreateUser creates an active user, linked to tenantID when it is set
func (s *Service) CreateUser(ctx context.Context, username string, tenantID *uuid.UUID) (*models.User, error) {
	if username == "" {
		return nil, apperr.Validation(map[string]string{"username": "This field is required."})
	}
	if tenantID != nil {
		if _, err := s.tenants.Get(ctx, *tenantID); err != nil {
			return nil, err
		}
	}

	user := &models.User{Username: username, IsActive: true}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if tenantID != nil {
		profile, err := s.users.AssignTenant(ctx, user.ID, *tenantID)
		if err != nil {
			return nil, err
		}
		user.Profile = profile
	}
	return user, nil
}

// SetUserActive enables or disables a user. Tokens of a disabled user are
// rejected from the next request on.
func (s *Service) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.users.SetActive(ctx, id, active)
}

// AuditTrail returns a tenant's audit entries, newest first
func (s *Service) AuditTrail(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	return s.audit.GetByTenantID(ctx, tenantID, limit, offset)
}

// ObjectHistory returns the audit entries of one object, newest first
func (s *Service) ObjectHistory(ctx context.Context, tenantID uuid.UUID, model string, objectID uuid.UUID) ([]models.AuditLog, error) {
	return s.audit.GetByObject(ctx, tenantID, model, objectID)
}

// checkTenant rejects configurations the request pipeline could not serve
func checkTenant(t *models.Tenant) error {
	violations := map[string]string{}

	if t.Name == "" {
		violations["name"] = "This field is required."
	}
	if !lo.Contains(tenantTypes, t.Type) {
		violations["type"] = fmt.Sprintf("%q is not a valid choice.", t.Type)
	}
	if _, err := tenancy.Select(t); err != nil {
		violations["patient_records_type"] = fmt.Sprintf("%q is not a valid choice.", t.PatientRecordsType)
	}
	if unknown := lo.Without(lo.Without([]string(t.PatientVisibleFields), models.VisibleAll), models.PatientFields...); len(unknown) > 0 {
		violations["patient_visible_fields"] = fmt.Sprintf("Unknown fields: %v.", unknown)
	}

	if len(violations) > 0 {
		return apperr.Validation(violations)
	}
	return nil
}
