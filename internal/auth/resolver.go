// Package auth resolves request credentials into principals.
//
// Resolution has three outcomes. A request with no bearer credential is
// anonymous. A bearer credential that fails verification is rejected. Any
// other failure while resolving (for example the user store being
// unreachable) degrades to anonymous, so routes that do not need a tenant keep
// working and protected routes fail with 401 further down the pipeline.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/otcheredev/clinical-records-api/internal/models"
)

// Sentinel errors returned by verifiers
var (
	ErrAbsent  = errors.New("credential absent")
	ErrInvalid = errors.New("invalid credential")
)

// Verifier validates a raw credential. It returns ErrAbsent when there is
// nothing to verify and an error wrapping ErrInvalid when the credential is
// bad. Any other error is treated as transient.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*models.Principal, error)
}

// Outcome is the result class of a resolution
type Outcome int

const (
	OutcomeAnonymous Outcome = iota
	OutcomeAuthenticated
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnonymous:
		return "anonymous"
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Resolution carries the outcome of resolving a credential
type Resolution struct {
	Outcome   Outcome
	Principal *models.Principal // set only when Outcome == OutcomeAuthenticated
	Err       error             // set only when Outcome == OutcomeRejected
}

// Resolver turns an Authorization header into a Resolution
type Resolver struct {
	verifier Verifier
}

// NewResolver creates a new identity resolver
func NewResolver(verifier Verifier) *Resolver {
	return &Resolver{verifier: verifier}
}

// Resolve resolves the Authorization header value
func (r *Resolver) Resolve(ctx context.Context, header string) Resolution {
	raw, err := ExtractBearer(header)
	if errors.Is(err, ErrAbsent) {
		return Resolution{Outcome: OutcomeAnonymous}
	}
	if err != nil {
		return Resolution{Outcome: OutcomeRejected, Err: err}
	}

	principal, err := r.verifier.Verify(ctx, raw)
	switch {
	case err == nil:
		return Resolution{Outcome: OutcomeAuthenticated, Principal: principal}
	case errors.Is(err, ErrInvalid):
		return Resolution{Outcome: OutcomeRejected, Err: err}
	case errors.Is(err, ErrAbsent):
		return Resolution{Outcome: OutcomeAnonymous}
	default:
		log.Warn().Err(err).Msg("Credential resolution failed, continuing as anonymous")
		return Resolution{Outcome: OutcomeAnonymous}
	}
}

// ExtractBearer returns the token from a "Bearer <token>" header. Headers
// using another scheme are not ours to judge and count as absent.
func ExtractBearer(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 || parts[0] != "Bearer" {
		return "", ErrAbsent
	}
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: authorization header must contain two space-delimited values", ErrInvalid)
	}
	return parts[1], nil
}
