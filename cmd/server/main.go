// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricebot/pricebot/internal/config"
	"github.com/pricebot/pricebot/internal/database"
	"github.com/pricebot/pricebot/internal/handlers"
	"github.com/pricebot/pricebot/internal/ingestion"
	"github.com/pricebot/pricebot/internal/jobrunner"
	"github.com/pricebot/pricebot/internal/llmextract"
	"github.com/pricebot/pricebot/internal/metrics"
	"github.com/pricebot/pricebot/internal/offeringest"
	"github.com/pricebot/pricebot/internal/query"
	"github.com/pricebot/pricebot/internal/resolver"
	"github.com/pricebot/pricebot/internal/router"
	"github.com/pricebot/pricebot/internal/storage"
	"github.com/pricebot/pricebot/internal/utils"
	"github.com/pricebot/pricebot/internal/visionocr"
	"github.com/pricebot/pricebot/internal/whatsapp"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	logger := logrus.New()
	if cfg.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	utils.SetJWTSecret(cfg.Admin.JWTSecret)

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize database: ", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("failed to run migrations: ", err)
	}

	staleThreshold := time.Duration(cfg.Ingestion.StaleRunningJobThresholdMinutes) * time.Minute
	if err := jobrunner.ReconcileStaleJobs(db, staleThreshold, logger); err != nil {
		logger.WithError(err).Error("failed to reconcile stale jobs at startup")
	}

	ctx := context.Background()

	llmExtractor, err := buildLLMExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		log.Fatal("failed to initialize llm extractor: ", err)
	}
	visionExtractor, err := buildVisionExtractor(ctx, cfg.Vision)
	if err != nil {
		log.Fatal("failed to initialize vision extractor: ", err)
	}

	metricsRegistry := metrics.New()

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal("failed to initialize storage: ", err)
	}

	embeddings := resolver.NoopEmbeddingService{}

	offers := offeringest.New(db, embeddings, cfg.Ingestion.EmbeddingSimilarityThreshold, cfg.Ingestion.EmbeddingCandidateCap, logger)
	queryService := query.New(db, embeddings, cfg.Ingestion.EmbeddingSimilarityThreshold, cfg.Ingestion.EmbeddingCandidateCap)

	registry := ingestion.NewRegistry(
		ingestion.NewSpreadsheetProcessor(),
		ingestion.NewDocumentProcessor(),
		ingestion.NewWhatsAppTextProcessor(),
	)

	runner := jobrunner.New(db, registry, store, offers, metricsRegistry, logger, cfg.Ingestion.WorkerCount, cfg.Ingestion.QueueCapacity, jobrunner.Deps{
		DefaultCurrency:      cfg.Ingestion.DefaultCurrency,
		PreferLLM:            cfg.LLM.Enabled,
		LLM:                  llmExtractor,
		Vision:               visionExtractor,
		MinEmbeddedTextChars: cfg.Ingestion.DocumentMinEmbeddedTextChars,
	})
	runner.Start(ctx)

	waService := whatsapp.New(db, store, offers, metricsRegistry, cfg.WhatsApp, logger)

	h := &router.Handlers{
		Documents: handlers.NewDocumentHandler(db, store, runner, metricsRegistry, logger),
		Offers:    handlers.NewOfferHandler(db),
		Products:  handlers.NewProductHandler(db),
		Vendors:   handlers.NewVendorHandler(db),
		PriceHist: handlers.NewPriceHistoryHandler(queryService),
		ChatTools: handlers.NewChatToolsHandler(queryService),
		WhatsApp:  handlers.NewWhatsAppHandler(waService, cfg.Environment == "production" || cfg.Environment == "prod"),
		Admin:     handlers.NewAdminHandler(cfg.Admin),
		Metrics:   handlers.NewMetricsHandler(metricsRegistry),
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.New(h, logger, cfg.AdminAuthEnabled())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	grace := time.Duration(cfg.Server.ShutdownGraceSeconds) * time.Second
	if grace <= 0 {
		grace = 30 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}

	runner.Shutdown(grace)
	waService.Stop()

	logger.Info("server exited")
}

func buildLLMExtractor(ctx context.Context, cfg config.LLMConfig, logger *logrus.Logger) (ingestion.LLMExtractor, error) {
	if !cfg.Enabled {
		return llmextract.NoopExtractor{}, nil
	}
	return llmextract.NewGeminiExtractor(ctx, cfg.APIKey, cfg.Model, logger)
}

// buildVisionExtractor materializes the Vision service account JSON (passed
// to this process as env content, not a path) to a temp file, since
// NewGoogleVisionExtractor authenticates from a credentials file path.
func buildVisionExtractor(ctx context.Context, cfg config.VisionConfig) (ingestion.VisionExtractor, error) {
	if !cfg.Enabled || cfg.CredentialsJSON == "" {
		return visionocr.NoopExtractor{}, nil
	}

	tmp, err := os.CreateTemp("", "pricebot-vision-credentials-*.json")
	if err != nil {
		return nil, fmt.Errorf("write vision credentials: %w", err)
	}
	defer tmp.Close()
	if _, err := tmp.WriteString(cfg.CredentialsJSON); err != nil {
		return nil, fmt.Errorf("write vision credentials: %w", err)
	}

	return visionocr.NewGoogleVisionExtractor(ctx, tmp.Name())
}
