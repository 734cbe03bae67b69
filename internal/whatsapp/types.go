// internal/whatsapp/types.go
package whatsapp

import (
	"time"

	"github.com/google/uuid"
)

// MessageIn is one message within an ingest batch, per spec §4.8 step 1.
type MessageIn struct {
	ChatTitle   string                 `json:"chat_title" binding:"required,min=1,max=200"`
	ChatType    string                 `json:"chat_type,omitempty"`
	PlatformID  *string                `json:"platform_id,omitempty"`
	MessageID   *string                `json:"message_id,omitempty"`
	ObservedAt  *time.Time             `json:"observed_at,omitempty"`
	SenderName  *string                `json:"sender_name,omitempty"`
	SenderPhone *string                `json:"sender_phone,omitempty"`
	IsOutgoing  *bool                  `json:"is_outgoing,omitempty"`
	Text        string                 `json:"text" binding:"required,min=1,max=5000"`
	RawPayload  map[string]interface{} `json:"raw_payload,omitempty"`

	// Media carries a base64-encoded attachment (photo of a price list,
	// voice note transcript source, etc.), per SPEC_FULL.md's supplemented
	// media-attachment feature. Optional — most messages carry text only.
	MediaBase64   *string `json:"media_base64,omitempty"`
	MediaFileName *string `json:"media_file_name,omitempty"`
	MediaMimeType *string `json:"media_mime_type,omitempty"`
}

// IngestRequest is the POST /integrations/whatsapp/ingest body.
type IngestRequest struct {
	ClientID string      `json:"client_id" binding:"required"`
	Messages []MessageIn `json:"messages" binding:"required,min=1"`
}

// Decision records what happened to a single message, for the response's
// per-message audit trail.
type Decision struct {
	ChatTitle         string     `json:"chat_title"`
	PlatformID        *string    `json:"platform_id,omitempty"`
	MessageID         *string    `json:"message_id,omitempty"`
	ContentHash       string     `json:"content_hash"`
	Status            string     `json:"status"` // created, deduped, skipped
	Reason            string     `json:"reason,omitempty"`
	WhatsAppMessageID *uuid.UUID `json:"whatsapp_message_id,omitempty"`
}

// IngestResponse is the POST /integrations/whatsapp/ingest response body.
type IngestResponse struct {
	RequestID    string     `json:"request_id"`
	Accepted     int        `json:"accepted"`
	Created      int        `json:"created"`
	Deduped      int        `json:"deduped"`
	Filtered     int        `json:"filtered"`
	CreatedChats int        `json:"created_chats"`
	Decisions    []Decision `json:"decisions"`
}
