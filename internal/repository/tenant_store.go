package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/cache"
	"github.com/otcheredev/clinical-records-api/internal/metrics"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

// TenantStore resolves a principal's tenant through a snapshot cache in front
// of the tenant table. Every lookup decodes a fresh copy, so callers own the
// returned tenant for the lifetime of their request.
type TenantStore struct {
	tenants *TenantRepository
	cache   cache.Cache
	ttl     time.Duration
}

// NewTenantStore creates a new cached tenant store. A zero ttl disables caching.
func NewTenantStore(tenants *TenantRepository, c cache.Cache, ttl time.Duration) *TenantStore {
	return &TenantStore{
		tenants: tenants,
		cache:   c,
		ttl:     ttl,
	}
}

// LookupByPrincipal returns the principal's tenant, or nil when the principal
// has no profile tenant or the tenant no longer exists
func (s *TenantStore) LookupByPrincipal(ctx context.Context, p *models.Principal) (*models.Tenant, error) {
	if p == nil || p.TenantID == nil {
		return nil, nil
	}
	key := cache.TenantKey(p.TenantID.String())

	if s.enabled() {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var tenant models.Tenant
			if err := json.Unmarshal(data, &tenant); err == nil {
				metrics.TenantCacheLookups.WithLabelValues("hit").Inc()
				return &tenant, nil
			}
			log.Warn().Str("key", key).Msg("Discarding undecodable tenant snapshot")
		case errors.Is(err, cache.ErrCacheMiss):
		default:
			log.Warn().Err(err).Str("key", key).Msg("Tenant cache read failed")
		}
		metrics.TenantCacheLookups.WithLabelValues("miss").Inc()
	}

	tenant, err := s.tenants.GetByID(ctx, *p.TenantID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.enabled() {
		if data, err := json.Marshal(tenant); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Tenant cache write failed")
			}
		}
	}

	return tenant, nil
}

// Get reads a tenant from the database, bypassing the snapshot cache
func (s *TenantStore) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

// Create stores a new tenant
func (s *TenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	return s.tenants.Create(ctx, tenant)
}

// Update saves a tenant's configuration and drops its cached snapshot, so the
// next request sees the new configuration
func (s *TenantStore) Update(ctx context.Context, tenant *models.Tenant) error {
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return err
	}
	if err := s.Invalidate(ctx, tenant.ID.String()); err != nil {
		return fmt.Errorf("failed to invalidate tenant snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot of a tenant after its configuration changed
func (s *TenantStore) Invalidate(ctx context.Context, tenantID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cache.TenantKey(tenantID))
}

// Flush drops every cached tenant snapshot
func (s *TenantStore) Flush(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Clear(ctx, cache.TenantPattern); err != nil {
		return fmt.Errorf("failed to flush tenant snapshots: %w", err)
	}
	return nil
}

func (s *TenantStore) enabled() bool {
	return s.cache != nil && s.ttl > 0
}
