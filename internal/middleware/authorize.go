package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
)

type contextKey string

const ExecutionKey contextKey = "execution"

// Authorize runs the pipeline's authorization stages for every request. A
// rejected request is answered here; otherwise the execution is stored in the
// request context for the handlers.
func Authorize(p *pipeline.Pipeline, requireTenant bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ex := p.Authorize(r.Context(), pipeline.Request{
				Authorization:  r.Header.Get("Authorization"),
				RequiresTenant: requireTenant,
			})
			if ex.Rejected() {
				WriteError(w, ex.Err)
				return
			}

			ctx := context.WithValue(r.Context(), ExecutionKey, ex)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetExecution extracts the request's pipeline execution from context
func GetExecution(ctx context.Context) (*pipeline.Execution, bool) {
	ex, ok := ctx.Value(ExecutionKey).(*pipeline.Execution)
	return ex, ok && ex != nil
}

// WriteError writes err as a JSON body with its mapped status
func WriteError(w http.ResponseWriter, err error) {
	e := apperr.As(err)
	if e.Kind == apperr.KindInvalidCredential || e.Kind == apperr.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	json.NewEncoder(w).Encode(e.Body())
}
