package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction is the kind of operation recorded in the audit log
type AuditAction string

const (
	AuditActionView   AuditAction = "view"
	AuditActionList   AuditAction = "list"
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Model     string         `gorm:"type:varchar(100);not null" json:"model"`
	ObjectID  *uuid.UUID     `gorm:"type:uuid;index" json:"object_id,omitempty"`
	Action    AuditAction    `gorm:"type:varchar(20);not null;index" json:"action"`
	Metadata  map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata"`
	CreatedAt time.Time      `gorm:"index" json:"timestamp"`
}

// TableName overrides the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	return nil
}
