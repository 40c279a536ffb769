// Package testutil provides fixtures shared by package tests: isolated
// in-memory databases, tenants, users and signed access tokens.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/otcheredev/clinical-records-api/internal/database"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

// Secret signs every token minted by Token
const Secret = "test-secret"

// OpenDB opens a migrated in-memory database private to the test
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), "silent")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// TenantOption adjusts a tenant fixture
type TenantOption func(*models.Tenant)

func Partial(allow bool) TenantOption {
	return func(t *models.Tenant) { t.AllowPartialPatients = allow }
}

func HIPAA(mandatory bool) TenantOption {
	return func(t *models.Tenant) { t.SSNHIPAAMandatory = mandatory }
}

func Visible(fields ...string) TenantOption {
	return func(t *models.Tenant) { t.PatientVisibleFields = fields }
}

func Records(rt models.RecordsType) TenantOption {
	return func(t *models.Tenant) { t.PatientRecordsType = rt }
}

func Premium(premium bool) TenantOption {
	return func(t *models.Tenant) { t.Premium = premium }
}

// NewTenant builds a tenant that sees every field, requires complete patients,
// stores plain SSNs and uses rigid records, then applies opts
func NewTenant(opts ...TenantOption) *models.Tenant {
	t := &models.Tenant{
		ID:                   uuid.New(),
		Name:                 "General Hospital",
		Type:                 models.TenantTypeHospital,
		PatientVisibleFields: models.VisibleFields{models.VisibleAll},
		PatientRecordsType:   models.RecordsTypeRigid,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateTenant persists NewTenant(opts...)
func CreateTenant(t *testing.T, db *gorm.DB, opts ...TenantOption) *models.Tenant {
	t.Helper()
	tenant := NewTenant(opts...)
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// CreateUser persists an active user, linked to tenant when it is not nil
func CreateUser(t *testing.T, db *gorm.DB, tenant *models.Tenant) *models.User {
	t.Helper()
	user := &models.User{
		Username: "user-" + uuid.NewString()[:8],
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)

	if tenant != nil {
		profile := &models.UserProfile{UserID: user.ID, TenantID: tenant.ID}
		require.NoError(t, db.Create(profile).Error)
		user.Profile = profile
	}
	return user
}

// Token mints an access token for userID signed with Secret
func Token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	return SignedToken(t, Secret, models.AccessClaims{
		UserID:    userID.String(),
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// SignedToken signs arbitrary claims with HS256
func SignedToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// Bearer formats an Authorization header value
func Bearer(token string) string {
	return "Bearer " + token
}

// Ctx returns a context bounded by the test deadline
func Ctx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
