package pipeline

import (
	"context"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/auth"
	"github.com/otcheredev/clinical-records-api/internal/tenancy"
)

// Stage is one step of the authorization pipeline. A stage returning an error
// rejects the request and no later stage runs.
type Stage struct {
	Name string
	Run  func(ctx context.Context, ex *Execution) error
}

// ResolveIdentity resolves the request credential
func ResolveIdentity(resolver *auth.Resolver) Stage {
	return Stage{
		Name: "resolve_identity",
		Run: func(ctx context.Context, ex *Execution) error {
			res := resolver.Resolve(ctx, ex.Request.Authorization)
			switch res.Outcome {
			case auth.OutcomeAuthenticated:
				ex.Principal = res.Principal
				ex.State = StateAuthenticated
				return nil
			case auth.OutcomeRejected:
				return apperr.Wrap(apperr.KindInvalidCredential, "Unauthorized or invalid token.", res.Err)
			default:
				if ex.Request.RequiresTenant {
					return apperr.New(apperr.KindUnauthorized, "Authentication credentials were not provided.")
				}
				ex.State = StateAnonymous
				return nil
			}
		},
	}
}

// BindTenant binds an authenticated principal to its tenant. Anonymous
// executions pass through untouched.
func BindTenant(binder *tenancy.Binder) Stage {
	return Stage{
		Name: "bind_tenant",
		Run: func(ctx context.Context, ex *Execution) error {
			if ex.State != StateAuthenticated {
				return nil
			}
			tenant, err := binder.Bind(ctx, ex.Principal)
			if err != nil {
				return err
			}
			ex.Tenant = tenant
			ex.State = StateTenantBound
			return nil
		},
	}
}

// SelectSchema selects the record and SSN schema of the bound tenant
func SelectSchema() Stage {
	return Stage{
		Name: "select_schema",
		Run: func(ctx context.Context, ex *Execution) error {
			if ex.Tenant == nil {
				return nil
			}
			schema, err := tenancy.Select(ex.Tenant)
			if err != nil {
				return err
			}
			ex.Schema = schema
			return nil
		},
	}
}
