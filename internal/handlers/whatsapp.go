// internal/handlers/whatsapp.go
package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pricebot/pricebot/internal/utils"
	"github.com/pricebot/pricebot/internal/whatsapp"
)

// WhatsAppHandler implements the live ingest and chat-management endpoints
// of spec §4.8 and SPEC_FULL.md's supplemented feature 3. The token and
// signature gates run against the raw request body before any JSON binding,
// per spec §4.8 steps 1-2.
type WhatsAppHandler struct {
	service      *whatsapp.Service
	isProduction bool
}

func NewWhatsAppHandler(service *whatsapp.Service, isProduction bool) *WhatsAppHandler {
	return &WhatsAppHandler{service: service, isProduction: isProduction}
}

func (h *WhatsAppHandler) Ingest(c *gin.Context) {
	cfg := h.service.Config()

	token := c.GetHeader("X-Ingest-Token")
	if err := whatsapp.CheckToken(cfg.IngestToken, token, h.isProduction); err != nil {
		h.service.RecordAuthFailure("unknown")
		if errors.Is(err, whatsapp.ErrNotConfigured) {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "dependency_unavailable", "whatsapp ingest is not configured", nil)
			return
		}
		utils.UnauthorizedResponse(c, "invalid ingest token")
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.BadRequestResponse(c, "failed to read request body", nil)
		return
	}

	ttl := time.Duration(cfg.SignatureTTLSeconds) * time.Second
	if err := whatsapp.VerifySignature(cfg.HMACSecret, c.GetHeader("X-Signature"), c.GetHeader("X-Signature-Timestamp"), raw, ttl, time.Now().UTC()); err != nil {
		h.service.RecordForbidden("unknown")
		utils.ForbiddenResponse(c, "invalid or stale signature")
		return
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	var req whatsapp.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrs := utils.GetValidationErrors(err); len(validationErrs) > 0 {
			utils.ValidationErrorResponse(c, validationErrs)
			return
		}
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	if !h.service.AllowClient(req.ClientID) {
		h.service.RecordRateLimited(req.ClientID)
		utils.RateLimitedResponse(c, 60)
		return
	}

	if cfg.MaxMessagesPerBatch > 0 && len(req.Messages) > cfg.MaxMessagesPerBatch {
		h.service.RecordForbidden(req.ClientID)
		utils.BadRequestResponse(c, "batch exceeds max_messages_per_batch", gin.H{"max_messages_per_batch": cfg.MaxMessagesPerBatch})
		return
	}

	requestID := c.GetString("request_id")
	resp, err := h.service.IngestBatch(c.Request.Context(), requestID, req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "processor_failure", "failed to ingest batch", nil)
		return
	}
	utils.SuccessResponse(c, resp)
}

// ListChats implements GET /integrations/whatsapp/chats.
func (h *WhatsAppHandler) ListChats(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	chats, total, err := h.service.ListChats(params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to list chats")
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(chats, total, params))
}

// Extract implements POST /integrations/whatsapp/chats/{id}/extract: runs
// ExtractChat immediately over every message observed since the chat's
// watermark, bypassing the debounce window for operator-triggered runs.
func (h *WhatsAppHandler) Extract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid chat id", nil)
		return
	}
	if _, err := h.service.GetChat(id); err != nil {
		utils.NotFoundResponse(c, "chat")
		return
	}
	outcome, err := h.service.ExtractChat(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "processor_failure", "failed to extract chat", nil)
		return
	}
	utils.SuccessResponse(c, outcome)
}

type setChatVendorRequest struct {
	VendorID string `json:"vendor_id" binding:"required"`
}

// SetVendor implements PATCH /integrations/whatsapp/chats/{id}/vendor,
// mapping a chat to a vendor so its extracted offers attribute to it
// (SPEC_FULL.md's supplemented vendor-mapping feature, spec §4.8 step 6).
func (h *WhatsAppHandler) SetVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid chat id", nil)
		return
	}
	var req setChatVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		utils.BadRequestResponse(c, "invalid vendor_id", nil)
		return
	}
	chat, err := h.service.SetChatVendor(id, vendorID)
	if err != nil {
		utils.NotFoundResponse(c, "chat or vendor")
		return
	}
	utils.SuccessResponse(c, chat)
}

// ExtractLatest is an alias for Extract scoped to the most recently created
// chat, for operators who don't know the chat id offhand (SPEC_FULL.md
// supplemented feature 3).
func (h *WhatsAppHandler) ExtractLatest(c *gin.Context) {
	chats, _, err := h.service.ListChats(1, 0)
	if err != nil || len(chats) == 0 {
		utils.NotFoundResponse(c, "chat")
		return
	}
	outcome, err := h.service.ExtractChat(c.Request.Context(), chats[0].ID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "processor_failure", "failed to extract chat", nil)
		return
	}
	utils.SuccessResponse(c, gin.H{"chat_id": chats[0].ID, "outcome": outcome})
}
