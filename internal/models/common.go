// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BaseModel carries the fields every Pricebot entity shares. Timestamps are
// stored timezone-naive UTC per spec; callers never write local time into
// these columns.
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONMap is the free-form metadata column type used across the schema.
type JSONMap = datatypes.JSONMap

// SourceDocumentStatus is the lifecycle state of an ingested artefact.
type SourceDocumentStatus string

const (
	DocumentStatusPending               SourceDocumentStatus = "pending"
	DocumentStatusProcessing            SourceDocumentStatus = "processing"
	DocumentStatusProcessed             SourceDocumentStatus = "processed"
	DocumentStatusProcessedWithWarnings SourceDocumentStatus = "processed_with_warnings"
	DocumentStatusFailed                SourceDocumentStatus = "failed"
)

// IsTerminal reports whether the status will never change again.
func (s SourceDocumentStatus) IsTerminal() bool {
	switch s {
	case DocumentStatusProcessed, DocumentStatusProcessedWithWarnings, DocumentStatusFailed:
		return true
	default:
		return false
	}
}

// IngestionJobStatus is the lifecycle state of a background job.
type IngestionJobStatus string

const (
	JobStatusQueued    IngestionJobStatus = "queued"
	JobStatusRunning   IngestionJobStatus = "running"
	JobStatusSucceeded IngestionJobStatus = "succeeded"
	JobStatusFailed    IngestionJobStatus = "failed"
)

// WhatsAppChatType classifies a WhatsApp conversation.
type WhatsAppChatType string

const (
	ChatTypeGroup   WhatsAppChatType = "group"
	ChatTypeDirect  WhatsAppChatType = "direct"
	ChatTypeUnknown WhatsAppChatType = "unknown"
)
