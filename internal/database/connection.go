// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pricebot/pricebot/internal/config"
	"github.com/pricebot/pricebot/internal/models"
)

// Initialize opens the Postgres connection and configures the shared pool,
// per spec §5's "single database handle pool (size default 20) shared by
// HTTP and worker threads" requirement.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormConfig *gorm.Config
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	} else {
		gormConfig = &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("failed to get underlying sql.DB on close")
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("failed to close database connection")
	} else {
		logrus.Info("database connection closed")
	}
}

// RunMigrations auto-migrates every entity named in spec §3. Index creation
// follows AutoMigrate for the indexes GORM's tags don't express: the offer
// (product, vendor) and captured_at indexes, the span lookup and partial
// open-span indexes, the lower(alias_text) index and the alias uniqueness
// triple, and the WhatsApp (chat, observed_at) and (chat, content_hash)
// indexes. The lower(name) vendor index comes from the Vendor model's tag.
func RunMigrations(db *gorm.DB) error {
	logrus.Info("running database migrations")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.Vendor{},
		&models.Product{},
		&models.ProductAlias{},
		&models.SourceDocument{},
		&models.IngestionJob{},
		&models.Offer{},
		&models.PriceHistorySpan{},
		&models.WhatsAppChat{},
		&models.WhatsAppMessage{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_offers_product_vendor ON offers(product_id, vendor_id)",
		"CREATE INDEX IF NOT EXISTS idx_offers_captured_at ON offers(captured_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_spans_pair_valid_from ON price_history_spans(product_id, vendor_id, valid_from)",
		"CREATE INDEX IF NOT EXISTS idx_spans_open ON price_history_spans(product_id, vendor_id) WHERE valid_to IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_aliases_text ON product_aliases(lower(alias_text))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_aliases_unique_triple ON product_aliases(product_id, lower(alias_text), COALESCE(source_vendor_id, '00000000-0000-0000-0000-000000000000'))",
		"CREATE INDEX IF NOT EXISTS idx_wa_messages_chat_observed ON whatsapp_messages(chat_id, observed_at)",
		"CREATE INDEX IF NOT EXISTS idx_wa_messages_chat_content_hash ON whatsapp_messages(chat_id, content_hash)",
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			logrus.WithError(err).WithField("index", idx).Warn("failed to create index, continuing")
		}
	}
	return nil
}

// WithTransaction wraps fn in a GORM transaction, rolling back on error or
// panic and committing otherwise. This is the atomic-batch boundary every
// ingestion write path (upload, WhatsApp extraction) runs through, per spec
// §5's ordering guarantees.
func WithTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
