package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
)

func TestStatus(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindInvalidCredential:  http.StatusUnauthorized,
		apperr.KindUnauthorized:       http.StatusUnauthorized,
		apperr.KindTenantMissing:      http.StatusBadRequest,
		apperr.KindValidationFailed:   http.StatusBadRequest,
		apperr.KindConstraintConflict: http.StatusConflict,
		apperr.KindNotFound:           http.StatusNotFound,
		apperr.KindConfiguration:      http.StatusInternalServerError,
		apperr.KindInternal:           http.StatusInternalServerError,
	}
	for kind, status := range cases {
		t.Run(string(kind), func(t *testing.T) {
			assert.Equal(t, status, apperr.New(kind, "x").Status())
		})
	}
}

func TestBody(t *testing.T) {
	t.Run("validation failures are keyed by field", func(t *testing.T) {
		err := apperr.Validation(map[string]string{
			"email":    "This field is required.",
			"ssn_data": "Expected an object.",
		})
		assert.Equal(t, map[string]string{
			"email":    "This field is required.",
			"ssn_data": "Expected an object.",
		}, err.Body())
	})

	t.Run("other kinds use detail", func(t *testing.T) {
		err := apperr.New(apperr.KindTenantMissing, "Malformed token or tenant not assigned.")
		assert.Equal(t, map[string]string{"detail": "Malformed token or tenant not assigned."}, err.Body())
	})

	t.Run("empty message falls back to status text", func(t *testing.T) {
		assert.Equal(t, map[string]string{"detail": "Not Found"}, apperr.New(apperr.KindNotFound, "").Body())
	})

	t.Run("validation without fields uses detail", func(t *testing.T) {
		err := apperr.New(apperr.KindValidationFailed, "JSON parse error")
		assert.Equal(t, map[string]string{"detail": "JSON parse error"}, err.Body())
	})
}

func TestErrorMessageListsFieldsInOrder(t *testing.T) {
	err := apperr.Validation(map[string]string{"b": "second", "a": "first"})
	msg := err.Error()
	assert.Less(t, strings.Index(msg, "[a: first]"), strings.Index(msg, "[b: second]"), msg)
	assert.Contains(t, msg, "[a: first]")
}

func TestAsAndIs(t *testing.T) {
	base := apperr.Wrap(apperr.KindNotFound, "Not found.", errors.New("record not found"))
	wrapped := fmt.Errorf("failed to get patient: %w", base)

	got := apperr.As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, apperr.KindNotFound, got.Kind)
	assert.True(t, apperr.Is(wrapped, apperr.KindNotFound))
	assert.False(t, apperr.Is(wrapped, apperr.KindInternal))

	plain := apperr.As(errors.New("boom"))
	assert.Equal(t, apperr.KindInternal, plain.Kind)
	assert.Equal(t, http.StatusInternalServerError, plain.Status())
	assert.NotContains(t, plain.Body()["detail"], "boom")

	assert.Nil(t, apperr.As(nil))
}
