// internal/handlers/documents.go
package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/ingestion"
	"github.com/pricebot/pricebot/internal/jobrunner"
	"github.com/pricebot/pricebot/internal/metrics"
	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/storage"
	"github.com/pricebot/pricebot/internal/utils"
)

// DocumentHandler backs the upload, list, detail, job-status, and template
// endpoints of spec §6. Upload writes the artefact and enqueues a Task;
// every other handler only reads rows the job runner has already produced.
type DocumentHandler struct {
	db      *gorm.DB
	store   *storage.Service
	runner  *jobrunner.Runner
	metrics *metrics.Registry
	log     *logrus.Logger
}

func NewDocumentHandler(db *gorm.DB, store *storage.Service, runner *jobrunner.Runner, metricsRegistry *metrics.Registry, log *logrus.Logger) *DocumentHandler {
	return &DocumentHandler{db: db, store: store, runner: runner, metrics: metricsRegistry, log: log}
}

// Upload implements POST /documents/upload: multipart file + vendor_name +
// optional processor override. The artefact is written synchronously; all
// parsing happens asynchronously on the job runner, per spec §4.7.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "file is required", nil)
		return
	}
	vendorName := c.PostForm("vendor_name")
	processorName := c.PostForm("processor")

	f, err := fileHeader.Open()
	if err != nil {
		utils.InternalErrorResponse(c, "failed to open uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to read uploaded file")
		return
	}

	key := storage.Key(fileHeader.Filename)
	uploaded, err := h.store.Write(key, data)
	if err != nil {
		h.metrics.RecordFailure("storage_failure", err.Error(), fileHeader.Filename)
		utils.ErrorResponse(c, http.StatusInternalServerError, "storage_failure", "failed to persist artefact", nil)
		return
	}

	doc := &models.SourceDocument{
		FileName:   fileHeader.Filename,
		FileType:   strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), "."),
		StorageURI: uploaded.StorageURI,
		Status:     models.DocumentStatusPending,
		Extra:      models.JSONMap{"declared_vendor": vendorName},
	}
	docs := repository.NewSourceDocumentRepository(h.db)
	if err := docs.Create(doc); err != nil {
		utils.InternalErrorResponse(c, "failed to record source document")
		return
	}

	job := &models.IngestionJob{
		SourceDocumentID: doc.ID,
		Processor:        processorName,
		Status:           models.JobStatusQueued,
	}
	if job.Processor == "" {
		job.Processor = "auto"
	}
	jobs := repository.NewJobRepository(h.db)
	if err := jobs.Create(job); err != nil {
		utils.InternalErrorResponse(c, "failed to record ingestion job")
		return
	}

	if err := h.runner.Enqueue(jobrunner.Task{
		JobID:            job.ID,
		SourceDocumentID: doc.ID,
		StorageURI:       doc.StorageURI,
		OriginalFilename: fileHeader.Filename,
		DeclaredVendor:   vendorName,
		ProcessorName:    processorName,
	}); err != nil {
		job.Status = models.JobStatusFailed
		_ = jobs.Save(job)
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "dependency_unavailable", "job queue is full, retry shortly", nil)
		return
	}

	h.metrics.IncDocumentUploaded()
	utils.AcceptedResponse(c, gin.H{"document_id": doc.ID, "job_id": job.ID})
}

// List implements GET /documents.
func (h *DocumentHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	docs := repository.NewSourceDocumentRepository(h.db)
	rows, total, err := docs.List(params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		utils.InternalErrorResponse(c, "failed to list documents")
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(rows, total, params))
}

// Get implements GET /documents/{id}: the document plus the offers it
// produced.
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid document id", nil)
		return
	}
	docs := repository.NewSourceDocumentRepository(h.db)
	doc, err := docs.Get(id)
	if err != nil {
		utils.NotFoundResponse(c, "document")
		return
	}

	offers := repository.NewOfferRepository(h.db)
	rows, _, err := offers.List(repository.OfferFilter{SourceDocID: &id, Limit: 500})
	if err != nil {
		utils.InternalErrorResponse(c, "failed to list offers for document")
		return
	}
	utils.SuccessResponse(c, gin.H{"document": doc, "offers": rows})
}

// JobStatus implements GET /documents/jobs/{id}.
func (h *DocumentHandler) JobStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid job id", nil)
		return
	}
	jobs := repository.NewJobRepository(h.db)
	job, err := jobs.Get(id)
	if err != nil {
		utils.NotFoundResponse(c, "job")
		return
	}
	utils.SuccessResponse(c, gin.H{
		"id":         job.ID,
		"status":     job.Status,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
		"summary":    job.Logs["summary"],
	})
}

// Template implements GET /documents/templates/vendor-price.
func (h *DocumentHandler) Template(c *gin.Context) {
	data, err := ingestion.GenerateVendorPriceTemplate()
	if err != nil {
		utils.InternalErrorResponse(c, "failed to generate template")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="vendor-price-template.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
