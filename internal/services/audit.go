package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/otcheredev/clinical-records-api/internal/audit"
	"github.com/otcheredev/clinical-records-api/internal/models"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
)

// record emits an audit entry for a tenant-scoped operation
func record(ctx context.Context, sink audit.Sink, ex *pipeline.Execution, action models.AuditAction, model string, objectID *uuid.UUID, meta map[string]any) {
	if sink == nil || ex.Tenant == nil {
		return
	}

	e := audit.Entry{
		Action:   action,
		TenantID: ex.Tenant.ID,
		Premium:  ex.Tenant.Premium,
		Model:    model,
		ObjectID: objectID,
		Metadata: meta,
		At:       time.Now().UTC(),
	}
	if ex.Principal != nil {
		actor := ex.Principal.UserID
		e.ActorID = &actor
	}

	sink.Record(ctx, e)
}
