package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcheredev/clinical-records-api/internal/auth"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

type verifierFunc func(ctx context.Context, raw string) (*models.Principal, error)

func (f verifierFunc) Verify(ctx context.Context, raw string) (*models.Principal, error) {
	return f(ctx, raw)
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		header string
		token  string
		err    error
	}{
		{header: "", err: auth.ErrAbsent},
		{header: "   ", err: auth.ErrAbsent},
		{header: "Basic dXNlcjpwYXNz", err: auth.ErrAbsent},
		{header: "Token abc", err: auth.ErrAbsent},
		{header: "Bearer", err: auth.ErrInvalid},
		{header: "Bearer a b", err: auth.ErrInvalid},
		{header: "Bearer abc", token: "abc"},
	}

	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			token, err := auth.ExtractBearer(tc.header)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.token, token)
		})
	}
}

func TestResolve(t *testing.T) {
	principal := &models.Principal{UserID: uuid.New(), Username: "ada"}

	verifier := verifierFunc(func(ctx context.Context, raw string) (*models.Principal, error) {
		switch raw {
		case "good":
			return principal, nil
		case "bad":
			return nil, fmt.Errorf("%w: signature is invalid", auth.ErrInvalid)
		case "empty":
			return nil, auth.ErrAbsent
		default:
			return nil, errors.New("database is down")
		}
	})
	resolver := auth.NewResolver(verifier)

	cases := []struct {
		header  string
		outcome auth.Outcome
	}{
		{header: "", outcome: auth.OutcomeAnonymous},
		{header: "Basic abc", outcome: auth.OutcomeAnonymous},
		{header: "Bearer good", outcome: auth.OutcomeAuthenticated},
		{header: "Bearer bad", outcome: auth.OutcomeRejected},
		{header: "Bearer too many parts", outcome: auth.OutcomeRejected},
		{header: "Bearer empty", outcome: auth.OutcomeAnonymous},
		{header: "Bearer transient", outcome: auth.OutcomeAnonymous},
	}

	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			res := resolver.Resolve(context.Background(), tc.header)
			assert.Equal(t, tc.outcome, res.Outcome, res.Outcome.String())

			switch tc.outcome {
			case auth.OutcomeAuthenticated:
				assert.Same(t, principal, res.Principal)
				assert.NoError(t, res.Err)
			case auth.OutcomeRejected:
				assert.Nil(t, res.Principal)
				assert.ErrorIs(t, res.Err, auth.ErrInvalid)
			default:
				assert.Nil(t, res.Principal)
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "anonymous", auth.OutcomeAnonymous.String())
	assert.Equal(t, "authenticated", auth.OutcomeAuthenticated.String())
	assert.Equal(t, "rejected", auth.OutcomeRejected.String())
	assert.Equal(t, "unknown", auth.Outcome(42).String())
}
