// internal/whatsapp/service.go
package whatsapp

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/config"
	"github.com/pricebot/pricebot/internal/database"
	"github.com/pricebot/pricebot/internal/metrics"
	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/offeringest"
	"github.com/pricebot/pricebot/internal/ratelimit"
	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/storage"
)

// systemNoticeFallback covers the small set of filtered-event phrases the
// live ingest gate rejects outright (spec §4.8 step 3's "text is empty
// after trimming or matches a filtered-event rule"), kept separate from
// ingestion.ParseLines's own skip list since live messages arrive
// pre-split, one JSON object per message, rather than as transcript lines.
var systemNoticeFallback = []string{
	"image omitted", "video omitted", "audio omitted", "sticker omitted",
	"missed voice call", "missed video call", "joined using this group",
	"changed the subject", "changed this group", "security code changed",
	"created group", "added you", "messages and calls are end-to-end encrypted",
}

// Service implements the live WhatsApp ingest pipeline of spec §4.8:
// chat resolution, per-message dedupe, and debounced extraction into the
// same offer-ingestion tail the upload path uses.
type Service struct {
	db        *gorm.DB
	store     *storage.Service
	offers    *offeringest.Service
	metrics   *metrics.Registry
	limiter   *ratelimit.Limiter
	debouncer *Debouncer
	cfg       config.WhatsAppConfig
	log       *logrus.Logger
}

func New(db *gorm.DB, store *storage.Service, offers *offeringest.Service, metricsRegistry *metrics.Registry, cfg config.WhatsAppConfig, log *logrus.Logger) *Service {
	rl := ratelimit.New(perMinuteToRate(cfg.RateLimitPerMinute), cfg.RateLimitBurst, 30*time.Minute)
	debounceWindow := time.Duration(cfg.ExtractDebounceSeconds) * time.Second
	if debounceWindow <= 0 {
		debounceWindow = 5 * time.Second
	}
	return &Service{
		db:        db,
		store:     store,
		offers:    offers,
		metrics:   metricsRegistry,
		limiter:   rl,
		debouncer: NewDebouncer(debounceWindow),
		cfg:       cfg,
		log:       log,
	}
}

// Stop releases the rate limiter's sweep goroutine and cancels any pending
// debounce timers, for graceful shutdown.
func (s *Service) Stop() {
	s.limiter.Stop()
	s.debouncer.Stop()
}

// AllowClient enforces the per-client_id token bucket of spec §4.8 step 3.
func (s *Service) AllowClient(clientID string) bool {
	return s.limiter.Allow(clientID)
}

// Config exposes the WhatsApp settings the handler needs for the token and
// signature checks, which run before the body is parsed into an IngestRequest.
func (s *Service) Config() config.WhatsAppConfig {
	return s.cfg
}

// RecordAuthFailure, RecordForbidden, and RecordRateLimited attribute a
// gate failure to client_id before any chat has been resolved, using an
// empty chat_id bucket as the aggregate per-client count.
func (s *Service) RecordAuthFailure(clientID string) {
	s.metrics.IncWhatsApp(clientID, "", "auth_failures")
}

func (s *Service) RecordForbidden(clientID string) {
	s.metrics.IncWhatsApp(clientID, "", "forbidden")
}

func (s *Service) RecordRateLimited(clientID string) {
	s.metrics.IncWhatsApp(clientID, "", "rate_limited")
}

// ContentHash implements SPEC_FULL.md's resolution of the open question
// left by spec §4.8 step 5c: sha256(chat_title + "\n" + sender_name + "\n" + text).
func ContentHash(chatTitle, senderName, text string) string {
	h := sha256.New()
	h.Write([]byte(chatTitle))
	h.Write([]byte("\n"))
	h.Write([]byte(senderName))
	h.Write([]byte("\n"))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func isFilteredEvent(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if trimmed == "" {
		return true
	}
	for _, phrase := range systemNoticeFallback {
		if strings.Contains(trimmed, phrase) {
			return true
		}
	}
	return false
}

// IngestBatch runs spec §4.8 steps 4-6 for one posted batch: chat
// resolution, per-message dedupe, persistence, and debounced extraction
// scheduling for every chat touched.
func (s *Service) IngestBatch(ctx context.Context, requestID string, req IngestRequest) (*IngestResponse, error) {
	resp := &IngestResponse{RequestID: requestID}
	touchedChats := make(map[uuid.UUID]bool)

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		repo := repository.NewWhatsAppRepository(tx)
		windowStart := time.Now().UTC().Add(-time.Duration(s.cfg.ContentHashWindowHours) * time.Hour)

		for _, msg := range req.Messages {
			resp.Accepted++

			chat, created, err := repo.GetOrCreateChat(msg.ChatTitle, msg.ChatType, msg.PlatformID)
			if err != nil {
				return fmt.Errorf("resolve chat %q: %w", msg.ChatTitle, err)
			}
			if created {
				resp.CreatedChats++
			}
			if _, err := repo.LockChat(chat.ID); err != nil {
				return fmt.Errorf("lock chat %q: %w", msg.ChatTitle, err)
			}

			decision := Decision{ChatTitle: msg.ChatTitle, PlatformID: msg.PlatformID, MessageID: msg.MessageID}

			senderName := ""
			if msg.SenderName != nil {
				senderName = *msg.SenderName
			}
			decision.ContentHash = ContentHash(chat.Title, senderName, msg.Text)
			s.metrics.IncWhatsApp(req.ClientID, chat.ID.String(), "accepted")

			if isFilteredEvent(msg.Text) {
				decision.Status = "skipped"
				decision.Reason = "empty_or_system_event"
				resp.Filtered++
				resp.Decisions = append(resp.Decisions, decision)
				continue
			}

			if msg.MessageID != nil && *msg.MessageID != "" {
				if existing, err := repo.FindByPlatformMessageID(chat.ID, *msg.MessageID); err == nil && existing != nil {
					decision.Status = "deduped"
					decision.Reason = "duplicate_message_id"
					resp.Deduped++
					s.metrics.IncWhatsApp(req.ClientID, chat.ID.String(), "deduped")
					resp.Decisions = append(resp.Decisions, decision)
					continue
				} else if err != nil && !isNotFoundErr(err) {
					return err
				}
			} else if existing, err := repo.FindByContentHashWithinWindow(chat.ID, decision.ContentHash, windowStart); err == nil && existing != nil {
				decision.Status = "deduped"
				decision.Reason = "duplicate_content_hash"
				resp.Deduped++
				s.metrics.IncWhatsApp(req.ClientID, chat.ID.String(), "deduped")
				resp.Decisions = append(resp.Decisions, decision)
				continue
			} else if err != nil && !isNotFoundErr(err) {
				return err
			}

			observedAt := time.Now().UTC()
			if msg.ObservedAt != nil {
				observedAt = msg.ObservedAt.UTC()
			}

			sourceDocID, err := s.storeMedia(tx, msg)
			if err != nil {
				return fmt.Errorf("store media for message in chat %q: %w", msg.ChatTitle, err)
			}

			record := &models.WhatsAppMessage{
				ChatID:            chat.ID,
				ClientID:          req.ClientID,
				ObservedAt:        observedAt,
				SenderName:        msg.SenderName,
				SenderPhone:       msg.SenderPhone,
				IsOutgoing:        msg.IsOutgoing,
				Text:              msg.Text,
				PlatformMessageID: msg.MessageID,
				ContentHash:       decision.ContentHash,
				RawPayload:        msg.RawPayload,
				SourceDocumentID:  sourceDocID,
			}
			if err := repo.CreateMessage(record); err != nil {
				return fmt.Errorf("create message in chat %q: %w", msg.ChatTitle, err)
			}

			decision.WhatsAppMessageID = &record.ID
			decision.Status = "created"
			resp.Created++
			s.metrics.IncWhatsApp(req.ClientID, chat.ID.String(), "created")
			resp.Decisions = append(resp.Decisions, decision)
			touchedChats[chat.ID] = true
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordFailure("processor_failure", err.Error(), req.ClientID)
		return resp, err
	}

	for chatID := range touchedChats {
		s.scheduleExtraction(chatID)
	}
	return resp, nil
}

// ListChats backs GET /integrations/whatsapp/chats (SPEC_FULL.md
// supplemented feature 3).
func (s *Service) ListChats(limit, offset int) ([]models.WhatsAppChat, int64, error) {
	repo := repository.NewWhatsAppRepository(s.db)
	return repo.ListChats(limit, offset)
}

// GetChat backs the single-chat lookup the extract endpoints need to 404
// on an unknown chat id before scheduling work.
func (s *Service) GetChat(chatID uuid.UUID) (*models.WhatsAppChat, error) {
	repo := repository.NewWhatsAppRepository(s.db)
	return repo.GetChat(chatID)
}

// SetChatVendor maps chatID to vendorID so its extracted offers attribute to
// that vendor (SPEC_FULL.md's supplemented vendor-mapping feature, spec
// §4.8 step 6). vendorID must already exist.
func (s *Service) SetChatVendor(chatID, vendorID uuid.UUID) (*models.WhatsAppChat, error) {
	if _, err := repository.NewVendorRepository(s.db).Get(vendorID); err != nil {
		return nil, err
	}
	return repository.NewWhatsAppRepository(s.db).SetChatVendor(chatID, vendorID)
}

// storeMedia persists msg's attachment, if any, through the shared artefact
// storage used by document uploads (SPEC_FULL.md's supplemented
// media-attachment feature), returning the SourceDocument id to link on
// WhatsAppMessage.SourceDocumentID. Returns (nil, nil) when msg carries no
// media.
func (s *Service) storeMedia(tx *gorm.DB, msg MessageIn) (*uuid.UUID, error) {
	if msg.MediaBase64 == nil || *msg.MediaBase64 == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(*msg.MediaBase64)
	if err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}

	fileName := "whatsapp-media"
	if msg.MediaFileName != nil && *msg.MediaFileName != "" {
		fileName = *msg.MediaFileName
	}
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")

	result, err := s.store.Write(storage.Key(fileName), data)
	if err != nil {
		return nil, fmt.Errorf("write media artefact: %w", err)
	}

	extra := models.JSONMap{"source": "whatsapp"}
	if msg.MediaMimeType != nil {
		extra["mime_type"] = *msg.MediaMimeType
	}
	doc := &models.SourceDocument{
		FileName:   fileName,
		FileType:   fileType,
		StorageURI: result.StorageURI,
		Status:     models.DocumentStatusProcessed,
		Extra:      extra,
	}
	if err := repository.NewSourceDocumentRepository(tx).Create(doc); err != nil {
		return nil, fmt.Errorf("record media source document: %w", err)
	}
	return &doc.ID, nil
}

func isNotFoundErr(err error) bool {
	return err == gorm.ErrRecordNotFound
}

func perMinuteToRate(perMinute float64) rate.Limit {
	if perMinute <= 0 {
		perMinute = 60
	}
	return rate.Limit(perMinute / 60.0)
}
