package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/middleware"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
	"github.com/otcheredev/clinical-records-api/internal/testutil"
)

// stubPipeline binds a fixed tenant for "Bearer ok" and rejects anything else
func stubPipeline(tenant *models.Tenant) *pipeline.Pipeline {
	return pipeline.NewWithStages(pipeline.Stage{
		Name: "stub",
		Run: func(ctx context.Context, ex *pipeline.Execution) error {
			switch ex.Request.Authorization {
			case "Bearer ok":
				ex.Principal = &models.Principal{UserID: uuid.New(), TenantID: &tenant.ID}
				ex.Tenant = tenant
				ex.State = pipeline.StateTenantBound
				return nil
			case "":
				if ex.Request.RequiresTenant {
					return apperr.New(apperr.KindUnauthorized, "Authentication credentials were not provided.")
				}
				ex.State = pipeline.StateAnonymous
				return nil
			default:
				return apperr.New(apperr.KindInvalidCredential, "Unauthorized or invalid token.")
			}
		},
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAuthorizeStoresExecution(t *testing.T) {
	tenant := testutil.NewTenant()
	var seen *pipeline.Execution
	handler := middleware.Authorize(stubPipeline(tenant), true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex, ok := middleware.GetExecution(r.Context())
		require.True(t, ok)
		seen = ex
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer ok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, tenant.ID, seen.Tenant.ID)
	assert.True(t, seen.Request.RequiresTenant)
}

func TestAuthorizeRejects(t *testing.T) {
	handler := middleware.Authorize(stubPipeline(testutil.NewTenant()), true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for rejected requests")
	}))

	cases := []struct {
		header string
		detail string
	}{
		{"", "Authentication credentials were not provided."},
		{"Bearer forged", "Unauthorized or invalid token."},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		assert.Equal(t, map[string]string{"detail": tc.detail}, decodeBody(t, rec))
	}
}

func TestAuthorizeOpenRoute(t *testing.T) {
	handler := middleware.Authorize(stubPipeline(testutil.NewTenant()), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex, ok := middleware.GetExecution(r.Context())
		require.True(t, ok)
		assert.Equal(t, pipeline.StateAnonymous, ex.State)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetExecutionMissing(t *testing.T) {
	_, ok := middleware.GetExecution(context.Background())
	assert.False(t, ok)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.WriteError(rec, apperr.Validation(map[string]string{"email": "This field is required."}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, map[string]string{"email": "This field is required."}, decodeBody(t, rec))
}

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]string{"detail": "Internal server error."}, decodeBody(t, rec))
}

func TestLoggingPassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.Logging)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/1", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
