// internal/models/source_document.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceDocument records every ingested artefact. It is created pending on
// upload, mutated by the job runner through processing, and becomes
// immutable once it reaches a terminal status.
type SourceDocument struct {
	BaseModel
	VendorID           *uuid.UUID           `json:"vendor_id,omitempty" gorm:"type:uuid;index"`
	FileName           string               `json:"file_name" gorm:"size:500;not null"`
	FileType           string               `json:"file_type" gorm:"size:32;not null;index"`
	StorageURI         string               `json:"storage_uri" gorm:"size:1024;not null"`
	IngestStartedAt    *time.Time           `json:"ingest_started_at,omitempty"`
	IngestCompletedAt  *time.Time           `json:"ingest_completed_at,omitempty"`
	Status             SourceDocumentStatus `json:"status" gorm:"size:32;not null;default:pending;index"`
	Extra              JSONMap              `json:"extra,omitempty" gorm:"type:jsonb"`
}

func (SourceDocument) TableName() string { return "source_documents" }

// IngestionJob is the bookkeeping row the background runner drives through
// queued -> running -> {succeeded,failed}.
type IngestionJob struct {
	BaseModel
	SourceDocumentID uuid.UUID          `json:"source_document_id" gorm:"type:uuid;not null;index"`
	Processor        string             `json:"processor" gorm:"size:64;not null;index"`
	Status           IngestionJobStatus `json:"status" gorm:"size:32;not null;default:queued;index"`
	Logs             JSONMap            `json:"logs,omitempty" gorm:"type:jsonb"`
}

func (IngestionJob) TableName() string { return "ingestion_jobs" }
