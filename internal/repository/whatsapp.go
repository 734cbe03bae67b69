// internal/repository/whatsapp.go
package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pricebot/pricebot/internal/models"
)

type WhatsAppRepository struct {
	db *gorm.DB
}

func NewWhatsAppRepository(db *gorm.DB) *WhatsAppRepository {
	return &WhatsAppRepository{db: db}
}

func (r *WhatsAppRepository) FindChatByPlatformID(platformID string) (*models.WhatsAppChat, error) {
	var c models.WhatsAppChat
	err := r.db.Where("platform_jid = ?", platformID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *WhatsAppRepository) FindChatByTitleCI(title string) (*models.WhatsAppChat, error) {
	var c models.WhatsAppChat
	err := r.db.Where("lower(title) = lower(?)", strings.TrimSpace(title)).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateChat resolves by platform_id when present, else case-insensitive
// title, creating on miss per spec §4.8 step 4.
func (r *WhatsAppRepository) GetOrCreateChat(title, chatType string, platformID *string) (*models.WhatsAppChat, bool, error) {
	if platformID != nil && *platformID != "" {
		if c, err := r.FindChatByPlatformID(*platformID); err == nil {
			return c, false, nil
		} else if !errorsIsNotFound(err) {
			return nil, false, err
		}
	} else if c, err := r.FindChatByTitleCI(title); err == nil {
		return c, false, nil
	} else if !errorsIsNotFound(err) {
		return nil, false, err
	}

	ct := models.ChatTypeUnknown
	if chatType != "" {
		ct = models.WhatsAppChatType(chatType)
	}
	chat := &models.WhatsAppChat{
		Title:       strings.TrimSpace(title),
		ChatType:    ct,
		PlatformJID: platformID,
	}
	if err := r.db.Create(chat).Error; err != nil {
		// Lost the create race; return the winner.
		if platformID != nil && *platformID != "" {
			if existing, findErr := r.FindChatByPlatformID(*platformID); findErr == nil {
				return existing, false, nil
			}
		}
		if existing, findErr := r.FindChatByTitleCI(title); findErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return chat, true, nil
}

func (r *WhatsAppRepository) GetChat(id uuid.UUID) (*models.WhatsAppChat, error) {
	var c models.WhatsAppChat
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LockChat takes a row-level lock on the chat for the lifetime of the
// enclosing transaction, serializing concurrent ingest batches and
// extraction runs against the same chat, per spec §5's ordering guarantee.
func (r *WhatsAppRepository) LockChat(id uuid.UUID) (*models.WhatsAppChat, error) {
	var c models.WhatsAppChat
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *WhatsAppRepository) ListChats(limit, offset int) ([]models.WhatsAppChat, int64, error) {
	var chats []models.WhatsAppChat
	var total int64
	if err := r.db.Model(&models.WhatsAppChat{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.Order("created_at desc").Limit(limit).Offset(offset).Find(&chats).Error; err != nil {
		return nil, 0, err
	}
	return chats, total, nil
}

func (r *WhatsAppRepository) SaveChat(c *models.WhatsAppChat) error {
	return r.db.Save(c).Error
}

// SetChatVendor maps a chat to a vendor so extracted offers attribute to it,
// per spec §4.8 step 6.
func (r *WhatsAppRepository) SetChatVendor(chatID, vendorID uuid.UUID) (*models.WhatsAppChat, error) {
	chat, err := r.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	chat.VendorID = &vendorID
	if err := r.db.Model(chat).Update("vendor_id", vendorID).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// FindByPlatformMessageID implements the primary dedupe key (chat, message_id).
func (r *WhatsAppRepository) FindByPlatformMessageID(chatID uuid.UUID, messageID string) (*models.WhatsAppMessage, error) {
	var m models.WhatsAppMessage
	err := r.db.Where("chat_id = ? AND platform_message_id = ?", chatID, messageID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByContentHashWithinWindow implements the secondary dedupe key
// (chat, content_hash) scoped to the rolling window, per spec §4.8 step 5c.
func (r *WhatsAppRepository) FindByContentHashWithinWindow(chatID uuid.UUID, contentHash string, since time.Time) (*models.WhatsAppMessage, error) {
	var m models.WhatsAppMessage
	err := r.db.Where("chat_id = ? AND content_hash = ? AND observed_at >= ?", chatID, contentHash, since).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *WhatsAppRepository) CreateMessage(m *models.WhatsAppMessage) error {
	return r.db.Create(m).Error
}

// RecentMessagesForChat returns messages observed at or after since, ordered
// chronologically, for the debounced extractor's recent-window scan.
func (r *WhatsAppRepository) RecentMessagesForChat(chatID uuid.UUID, since time.Time) ([]models.WhatsAppMessage, error) {
	var msgs []models.WhatsAppMessage
	err := r.db.Where("chat_id = ? AND observed_at >= ?", chatID, since).
		Order("observed_at asc").Find(&msgs).Error
	return msgs, err
}
