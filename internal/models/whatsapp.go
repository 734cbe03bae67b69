// internal/models/whatsapp.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// WhatsAppChat is a WhatsApp conversation, optionally mapped to a Vendor so
// that extracted offers have somewhere to attach.
type WhatsAppChat struct {
	BaseModel
	Title            string            `json:"title" gorm:"size:500;not null;index"`
	ChatType         WhatsAppChatType  `json:"chat_type" gorm:"size:16;not null;default:unknown"`
	PlatformJID      *string           `json:"platform_jid,omitempty" gorm:"size:255;index"`
	VendorID         *uuid.UUID        `json:"vendor_id,omitempty" gorm:"type:uuid;index"`
	Extra            JSONMap           `json:"extra,omitempty" gorm:"type:jsonb"`
	LastExtractedAt  *time.Time        `json:"last_extracted_at,omitempty"`
}

func (WhatsAppChat) TableName() string { return "whatsapp_chats" }

// WhatsAppMessage is a single message ingested through the live batch
// intake path. Dedupe key is (chat_id, message_id) when message_id is
// present, else (chat_id, content_hash) within the configured window.
type WhatsAppMessage struct {
	BaseModel
	ChatID             uuid.UUID  `json:"chat_id" gorm:"type:uuid;not null;index"`
	ClientID           string     `json:"client_id" gorm:"size:255;index"`
	ObservedAt         time.Time  `json:"observed_at" gorm:"not null;index"`
	SenderName         *string    `json:"sender_name,omitempty" gorm:"size:255"`
	SenderPhone        *string    `json:"sender_phone,omitempty" gorm:"size:64"`
	IsOutgoing         *bool      `json:"is_outgoing,omitempty"`
	Text               string     `json:"text" gorm:"type:text;not null"`
	PlatformMessageID  *string    `json:"platform_message_id,omitempty" gorm:"size:255;index"`
	ContentHash        string     `json:"content_hash" gorm:"size:64;not null;index"`
	RawPayload         JSONMap    `json:"raw_payload,omitempty" gorm:"type:jsonb"`
	SourceDocumentID   *uuid.UUID `json:"source_document_id,omitempty" gorm:"type:uuid;index"`
}

func (WhatsAppMessage) TableName() string { return "whatsapp_messages" }
