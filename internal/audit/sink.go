// Package audit queues audit entries emitted by the services and persists
// them in the background.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/otcheredev/clinical-records-api/internal/metrics"
	"github.com/otcheredev/clinical-records-api/internal/models"
)

// Entry is one audited operation
type Entry struct {
	Action   models.AuditAction
	TenantID uuid.UUID
	Premium  bool
	ActorID  *uuid.UUID
	Model    string
	ObjectID *uuid.UUID
	Metadata map[string]any
	At       time.Time
}

// Sink receives audit entries. Record must not block the caller.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// Writer persists audit logs
type Writer interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AsyncSink buffers entries and writes them from a single worker goroutine.
// When the buffer is full new entries are dropped and counted.
type AsyncSink struct {
	writer      Writer
	premiumOnly bool
	entries     chan Entry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncSink creates the sink and starts its worker. With premiumOnly set,
// entries of non-premium tenants are skipped.
func NewAsyncSink(writer Writer, bufferSize int, premiumOnly bool) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &AsyncSink{
		writer:      writer,
		premiumOnly: premiumOnly,
		entries:     make(chan Entry, bufferSize),
		done:        make(chan struct{}),
	}

	go s.run()

	return s
}

// Record queues an entry
func (s *AsyncSink) Record(ctx context.Context, e Entry) {
	if s.premiumOnly && !e.Premium {
		metrics.AuditEntries.WithLabelValues("skipped").Inc()
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.AuditEntries.WithLabelValues("dropped").Inc()
		return
	}

	select {
	case s.entries <- e:
	default:
		metrics.AuditEntries.WithLabelValues("dropped").Inc()
		log.Warn().
			Str("tenant_id", e.TenantID.String()).
			Str("action", string(e.Action)).
			Msg("Audit buffer full, dropping entry")
	}
}

// Close stops accepting entries and waits for queued ones to be written or
// for ctx to expire
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)

	for e := range s.entries {
		entry := &models.AuditLog{
			TenantID:  e.TenantID,
			UserID:    e.ActorID,
			Model:     e.Model,
			ObjectID:  e.ObjectID,
			Action:    e.Action,
			Metadata:  e.Metadata,
			CreatedAt: e.At,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.writer.Create(ctx, entry)
		cancel()

		if err != nil {
			metrics.AuditEntries.WithLabelValues("failed").Inc()
			log.Error().Err(err).
				Str("tenant_id", e.TenantID.String()).
				Str("action", string(e.Action)).
				Msg("Failed to persist audit entry")
			continue
		}
		metrics.AuditEntries.WithLabelValues("persisted").Inc()
	}
}

// Metadata builds the request metadata stored with an entry
func Metadata(path, method string, query map[string][]string) map[string]any {
	meta := map[string]any{
		"path":   path,
		"method": method,
	}
	if len(query) > 0 {
		meta["query"] = query
	}
	return meta
}
