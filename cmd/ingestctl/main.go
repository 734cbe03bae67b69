// cmd/ingestctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pricebot/pricebot/internal/config"
	"github.com/pricebot/pricebot/internal/database"
	"github.com/pricebot/pricebot/internal/ingestion"
	"github.com/pricebot/pricebot/internal/llmextract"
	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/offeringest"
	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/resolver"
	"github.com/pricebot/pricebot/internal/visionocr"
)

// ingestctl is an operator CLI for one-shot local ingestion and document
// inspection, bypassing the HTTP upload path entirely (SPEC_FULL.md
// supplemented feature 5). Its subcommands are built on spf13/cobra,
// following custodia-labs-sercha-cli's command tree.
func main() {
	root := &cobra.Command{
		Use:   "ingestctl",
		Short: "Operator tooling for Pricebot ingestion",
	}
	root.AddCommand(newIngestCmd())
	root.AddCommand(newListDocumentsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newIngestCmd() *cobra.Command {
	var vendor, processorName string

	cmd := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Ingest a local vendor price file without going through the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := logrus.New()

			db, err := database.Initialize(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer database.Close(db)

			registry := ingestion.NewRegistry(
				ingestion.NewSpreadsheetProcessor(),
				ingestion.NewDocumentProcessor(),
				ingestion.NewWhatsAppTextProcessor(),
			)
			processor, err := registry.Select(path, processorName)
			if err != nil {
				return fmt.Errorf("select processor: %w", err)
			}

			llmExtractor, err := buildLLMExtractor(cmd.Context(), cfg.LLM, logger)
			if err != nil {
				return fmt.Errorf("init llm extractor: %w", err)
			}
			visionExtractor, err := buildVisionExtractor(cmd.Context(), cfg.Vision)
			if err != nil {
				return fmt.Errorf("init vision extractor: %w", err)
			}

			startedAt := time.Now().UTC()
			doc := &models.SourceDocument{
				FileName:        path,
				FileType:        processor.Name(),
				StorageURI:      "file://" + path,
				Status:          models.DocumentStatusProcessing,
				IngestStartedAt: &startedAt,
				Extra:           models.JSONMap{"declared_vendor": vendor, "source": "ingestctl"},
			}
			docs := repository.NewSourceDocumentRepository(db)
			if err := docs.Create(doc); err != nil {
				return fmt.Errorf("record source document: %w", err)
			}

			pc := ingestion.ProcessContext{
				Ctx:                  cmd.Context(),
				DefaultCurrency:      cfg.Ingestion.DefaultCurrency,
				PreferLLM:            cfg.LLM.Enabled,
				LLM:                  llmExtractor,
				Vision:               visionExtractor,
				MinEmbeddedTextChars: cfg.Ingestion.DocumentMinEmbeddedTextChars,
			}
			result, err := processor.Process(path, pc)
			if err != nil {
				_ = docs.MarkStatus(doc.ID, models.DocumentStatusFailed, models.JSONMap{"error": err.Error()})
				return fmt.Errorf("process file: %w", err)
			}

			embeddings := resolver.NoopEmbeddingService{}
			offers := offeringest.New(db, embeddings, cfg.Ingestion.EmbeddingSimilarityThreshold, cfg.Ingestion.EmbeddingCandidateCap, logger)

			declaredVendor := vendor
			if declaredVendor == "" {
				declaredVendor = result.DeclaredVendor
			}
			outcome, err := offers.IngestRows(cmd.Context(), result.Rows, doc, declaredVendor)
			if err != nil {
				_ = docs.MarkStatus(doc.ID, models.DocumentStatusFailed, models.JSONMap{"error": err.Error()})
				return fmt.Errorf("ingest rows: %w", err)
			}

			allWarnings := append(result.Warnings, outcome.Warnings...)
			status := models.DocumentStatusProcessed
			if len(allWarnings) > 0 {
				status = models.DocumentStatusProcessedWithWarnings
			}
			if err := docs.MarkStatus(doc.ID, status, nil); err != nil {
				return fmt.Errorf("mark document terminal status: %w", err)
			}

			fmt.Printf("document %s: %d offers created, %d warnings\n", doc.ID, outcome.OffersCreated, len(allWarnings))
			for _, w := range allWarnings {
				fmt.Println("  -", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "declared vendor name for every row in this file")
	cmd.Flags().StringVar(&processorName, "processor", "", "force a specific processor instead of inferring from extension")
	return cmd
}

func newListDocumentsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list-documents",
		Short: "List recently ingested source documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.Initialize(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer database.Close(db)

			docs := repository.NewSourceDocumentRepository(db)
			rows, total, err := docs.List(limit, 0)
			if err != nil {
				return fmt.Errorf("list documents: %w", err)
			}

			fmt.Printf("%d documents total (showing %d)\n", total, len(rows))
			for _, d := range rows {
				fmt.Printf("%s\t%-10s\t%-24s\t%s\n", d.ID, d.Status, d.FileName, d.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of documents to list")
	return cmd
}

func buildLLMExtractor(ctx context.Context, cfg config.LLMConfig, logger *logrus.Logger) (ingestion.LLMExtractor, error) {
	if !cfg.Enabled {
		return llmextract.NoopExtractor{}, nil
	}
	return llmextract.NewGeminiExtractor(ctx, cfg.APIKey, cfg.Model, logger)
}

// buildVisionExtractor materializes the Vision service account JSON (passed
// as env content, not a path) to a temp file, since NewGoogleVisionExtractor
// authenticates from a credentials file path.
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
