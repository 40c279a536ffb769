// Package tenancy binds authenticated principals to their tenant and selects
// the record and SSN representations a tenant uses.
package tenancy

import (
	"context"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

// TenantMissingMessage is the detail returned when a principal has no tenant
const TenantMissingMessage = "Malformed token or tenant not assigned."

// Store looks up the tenant bound to a principal. It returns nil, nil when the
// principal has no tenant.
type Store interface {
	LookupByPrincipal(ctx context.Context, p *models.Principal) (*models.Tenant, error)
}

// Binder maps principals to tenants
type Binder struct {
	store Store
}

// NewBinder creates a new tenant binder
func NewBinder(store Store) *Binder {
	return &Binder{store: store}
}

// Bind returns the principal's tenant. A principal without a profile tenant,
// or whose tenant no longer exists, yields KindTenantMissing.
func (b *Binder) Bind(ctx context.Context, p *models.Principal) (*models.Tenant, error) {
	if p == nil || p.TenantID == nil {
		return nil, apperr.New(apperr.KindTenantMissing, TenantMissingMessage)
	}

	tenant, err := b.store.LookupByPrincipal(ctx, p)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to resolve tenant", err)
	}
	if tenant == nil {
		return nil, apperr.New(apperr.KindTenantMissing, TenantMissingMessage)
	}

	return tenant, nil
}
