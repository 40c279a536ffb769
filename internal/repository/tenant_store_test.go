package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcheredev/clinical-records-api/internal/cache"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/repository"
	"github.com/otcheredev/clinical-records-api/internal/testutil"
)

func principalFor(tenant *models.Tenant) *models.Principal {
	return &models.Principal{UserID: uuid.New(), TenantID: &tenant.ID}
}

func TestTenantStoreLookup(t *testing.T) {
	db := testutil.OpenDB(t)
	tenants := repository.NewTenantRepository(db)
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	store := repository.NewTenantStore(tenants, c, time.Minute)
	ctx := testutil.Ctx(t)

	tenant := testutil.CreateTenant(t, db, testutil.Visible("email"))

	got, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tenant.ID, got.ID)

	ok, err := c.Exists(ctx, cache.TenantKey(tenant.ID.String()))
	require.NoError(t, err)
	assert.True(t, ok)

	// A cached snapshot is served even after the row changes
	require.NoError(t, db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).Update("name", "Renamed").Error)
	cached, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	assert.Equal(t, tenant.Name, cached.Name)
	assert.Equal(t, models.VisibleFields{"email"}, cached.PatientVisibleFields)

	require.NoError(t, store.Invalidate(ctx, tenant.ID.String()))
	fresh, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.Name)
}

func TestTenantStoreReturnsCopies(t *testing.T) {
	db := testutil.OpenDB(t)
	store := repository.NewTenantStore(repository.NewTenantRepository(db), cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db, testutil.Visible("email"))

	first, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	first.PatientVisibleFields[0] = "ssn"
	first.Premium = true

	second, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	assert.Equal(t, models.VisibleFields{"email"}, second.PatientVisibleFields)
	assert.False(t, second.Premium)
}

func TestTenantStoreMissingTenant(t *testing.T) {
	db := testutil.OpenDB(t)
	store := repository.NewTenantStore(repository.NewTenantRepository(db), nil, 0)
	ctx := testutil.Ctx(t)

	got, err := store.LookupByPrincipal(ctx, &models.Principal{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, got)

	missing := uuid.New()
	got, err = store.LookupByPrincipal(ctx, &models.Principal{UserID: uuid.New(), TenantID: &missing})
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.Invalidate(ctx, missing.String()))
}

func TestTenantStoreWithRedis(t *testing.T) {
	db := testutil.OpenDB(t)
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache(cache.RedisOptions{Addr: mr.Addr(), Prefix: "records:"})
	require.NoError(t, err)
	defer rc.Close()

	store := repository.NewTenantStore(repository.NewTenantRepository(db), rc, time.Minute)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db, testutil.HIPAA(true))

	got, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	assert.True(t, got.SSNHIPAAMandatory)
	assert.True(t, mr.Exists("records:"+cache.TenantKey(tenant.ID.String())))
	assert.Equal(t, time.Minute, mr.TTL("records:"+cache.TenantKey(tenant.ID.String())))

	// A broken cache degrades to the database
	mr.SetError("LOADING")
	got, err = store.LookupByPrincipal(context.Background(), principalFor(tenant))
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)
}

func TestTenantStoreDiscardsCorruptSnapshot(t *testing.T) {
	db := testutil.OpenDB(t)
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	store := repository.NewTenantStore(repository.NewTenantRepository(db), c, time.Minute)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db)

	require.NoError(t, c.Set(ctx, cache.TenantKey(tenant.ID.String()), []byte("{not json"), time.Minute))

	got, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)
}

func TestTenantStoreUpdateDropsSnapshot(t *testing.T) {
	db := testutil.OpenDB(t)
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache(cache.RedisOptions{Addr: mr.Addr(), Prefix: "records:"})
	require.NoError(t, err)
	defer rc.Close()

	store := repository.NewTenantStore(repository.NewTenantRepository(db), rc, time.Hour)
	ctx := testutil.Ctx(t)
	tenant := testutil.CreateTenant(t, db, testutil.HIPAA(false))

	before, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	require.False(t, before.SSNHIPAAMandatory)

	stored, err := store.Get(ctx, tenant.ID)
	require.NoError(t, err)
	stored.SSNHIPAAMandatory = true
	stored.PatientRecordsType = models.RecordsTypeFlexible
	require.NoError(t, store.Update(ctx, stored))
	assert.False(t, mr.Exists("records:"+cache.TenantKey(tenant.ID.String())))

	after, err := store.LookupByPrincipal(ctx, principalFor(tenant))
	require.NoError(t, err)
	assert.True(t, after.SSNHIPAAMandatory)
	assert.Equal(t, models.RecordsTypeFlexible, after.PatientRecordsType)
}

func TestTenantStoreFlush(t *testing.T) {
	db := testutil.OpenDB(t)
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	store := repository.NewTenantStore(repository.NewTenantRepository(db), c, time.Minute)
	ctx := testutil.Ctx(t)

	first := testutil.CreateTenant(t, db)
	second := testutil.CreateTenant(t, db)
	for _, tenant := range []*models.Tenant{first, second} {
		_, err := store.LookupByPrincipal(ctx, principalFor(tenant))
		require.NoError(t, err)
	}
	require.NoError(t, c.Set(ctx, "session:1", []byte("x"), time.Minute))

	require.NoError(t, store.Flush(ctx))

	for _, tenant := range []*models.Tenant{first, second} {
		ok, err := c.Exists(ctx, cache.TenantKey(tenant.ID.String()))
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := c.Exists(ctx, "session:1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, repository.NewTenantStore(repository.NewTenantRepository(db), nil, 0).Flush(ctx))
}
