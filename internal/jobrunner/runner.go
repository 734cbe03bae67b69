// internal/jobrunner/runner.go
package jobrunner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/ingestion"
	"github.com/pricebot/pricebot/internal/metrics"
	"github.com/pricebot/pricebot/internal/models"
	"github.com/pricebot/pricebot/internal/offeringest"
	"github.com/pricebot/pricebot/internal/repository"
	"github.com/pricebot/pricebot/internal/storage"
)

// Task is one unit of ingestion work, queued by the upload handler after
// the artefact is written and the SourceDocument/IngestionJob rows are
// created, per spec §4.7.
type Task struct {
	JobID            uuid.UUID
	SourceDocumentID uuid.UUID
	StorageURI       string
	OriginalFilename string
	DeclaredVendor   string
	ProcessorName    string
}

// Runner is a bounded worker pool draining an in-process FIFO queue,
// grounded on the errgroup-based fan-out pattern used throughout
// yungbote-neurobridge-backend's internal/modules/learning/steps (e.g.
// embed_chunks.go), adapted here into a long-lived pool rather than a
// one-shot fan-out, since jobs arrive continuously over the lifetime of the
// process rather than as a single batch.
type Runner struct {
	db          *gorm.DB
	registry    *ingestion.Registry
	storage     *storage.Service
	offers      *offeringest.Service
	metrics     *metrics.Registry
	log         *logrus.Logger
	workers     int
	queue       chan Task
	group       *errgroup.Group
	dispatchWg  sync.WaitGroup
	drainOnce   sync.Once
	shutdownCh  chan struct{}
	pcTemplate  ingestion.ProcessContext
}

// Deps bundles the capability services threaded into every processor
// invocation, per spec §9's capability-interface design note.
type Deps struct {
	DefaultCurrency      string
	PreferLLM            bool
	LLM                  ingestion.LLMExtractor
	Vision               ingestion.VisionExtractor
	MinEmbeddedTextChars int
}

func New(
	db *gorm.DB,
	registry *ingestion.Registry,
	store *storage.Service,
	offers *offeringest.Service,
	metricsRegistry *metrics.Registry,
	log *logrus.Logger,
	workers int,
	queueCapacity int,
	deps Deps,
) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueCapacity <= 0 {
		queueCapacity = 256
	}
	return &Runner{
		db:         db,
		registry:   registry,
		storage:    store,
		offers:     offers,
		metrics:    metricsRegistry,
		log:        log,
		workers:    workers,
		queue:      make(chan Task, queueCapacity),
		shutdownCh: make(chan struct{}),
		pcTemplate: ingestion.ProcessContext{
			DefaultCurrency:      deps.DefaultCurrency,
			PreferLLM:            deps.PreferLLM,
			LLM:                  deps.LLM,
			Vision:               deps.Vision,
			MinEmbeddedTextChars: deps.MinEmbeddedTextChars,
		},
	}
}

// Start launches the dispatcher, which bounds live processing to r.workers
// concurrent jobs via errgroup's semaphore (SetLimit) rather than a fixed
// set of long-lived worker goroutines — each dequeued Task gets its own
// g.Go call, and the group blocks new dispatch once the limit is reached.
// Enqueue is non-blocking up to the queue's capacity; dequeue blocks the
// dispatcher, per spec §5's concurrency model.
func (r *Runner) Start(ctx context.Context) {
	r.group, _ = errgroup.WithContext(ctx)
	r.group.SetLimit(r.workers)

	r.dispatchWg.Add(1)
	go r.dispatch(ctx)

	r.log.WithField("workers", r.workers).Info("job runner started")
}

func (r *Runner) dispatch(ctx context.Context) {
	defer r.dispatchWg.Done()
	for {
		select {
		case <-r.shutdownCh:
			return
		case task, ok := <-r.queue:
			if !ok {
				return
			}
			r.group.Go(func() error {
				r.run(ctx, task)
				return nil
			})
		}
	}
}

// Enqueue submits a task without blocking the caller beyond queue capacity.
func (r *Runner) Enqueue(task Task) error {
	select {
	case r.queue <- task:
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}

// Shutdown stops accepting new work and waits up to grace for in-flight
// jobs to finish, per spec §5's 30s default grace deadline. Jobs still
// running past the deadline are abandoned in place — they remain `running`
// and are reconciled by ReconcileStaleJobs at next startup.
func (r *Runner) Shutdown(grace time.Duration) {
	r.drainOnce.Do(func() { close(r.shutdownCh) })

	done := make(chan struct{})
	go func() {
		r.dispatchWg.Wait()
		_ = r.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("job runner drained cleanly")
	case <-time.After(grace):
		r.log.Warn("job runner shutdown grace period elapsed with jobs still in flight")
	}
}

func (r *Runner) run(ctx context.Context, task Task) {
	jobs := repository.NewJobRepository(r.db)
	docs := repository.NewSourceDocumentRepository(r.db)
	log := r.log.WithFields(logrus.Fields{"job_id": task.JobID, "document_id": task.SourceDocumentID})

	job, err := jobs.Get(task.JobID)
	if err != nil {
		log.WithError(err).Error("job vanished before execution")
		return
	}
	job.Status = models.JobStatusRunning
	if err := jobs.Save(job); err != nil {
		log.WithError(err).Error("failed to mark job running")
		return
	}

	doc, err := docs.Get(task.SourceDocumentID)
	if err != nil {
		log.WithError(err).Error("source document vanished before execution")
		r.failJob(job, jobs, task.SourceDocumentID, docs, fmt.Sprintf("source document not found: %v", err))
		return
	}

	localPath, cleanup, err := r.storage.Open(task.StorageURI)
	if err != nil {
		r.failJob(job, jobs, doc.ID, docs, fmt.Sprintf("storage_failure: %v", err))
		return
	}
	defer cleanup()

	processor, err := r.registry.Select(localPath, task.ProcessorName)
	if err != nil {
		r.failJob(job, jobs, doc.ID, docs, fmt.Sprintf("unsupported_file_type: %v", err))
		return
	}

	pc := r.pcTemplate
	pc.Ctx = ctx
	result, err := processor.Process(localPath, pc)
	if err != nil {
		r.metrics.IncDocumentFailed()
		r.metrics.RecordFailure("processor_failure", err.Error(), task.SourceDocumentID.String())
		r.failJob(job, jobs, doc.ID, docs, fmt.Sprintf("processor_failure: %v", err))
		return
	}

	declaredVendor := task.DeclaredVendor
	if declaredVendor == "" {
		declaredVendor = result.DeclaredVendor
	}

	outcome, err := r.offers.IngestRows(ctx, result.Rows, doc, declaredVendor)
	if err != nil {
		r.metrics.IncDocumentFailed()
		r.metrics.RecordFailure("history_conflict", err.Error(), task.SourceDocumentID.String())
		r.failJob(job, jobs, doc.ID, docs, fmt.Sprintf("history_conflict: %v", err))
		return
	}

	allWarnings := append(result.Warnings, outcome.Warnings...)
	status := models.DocumentStatusProcessed
	if len(allWarnings) > 0 {
		status = models.DocumentStatusProcessedWithWarnings
	}

	if err := docs.MarkStatus(doc.ID, status, nil); err != nil {
		log.WithError(err).Error("failed to mark document terminal status")
	}

	job.Status = models.JobStatusSucceeded
	job.Logs = models.JSONMap{
		"summary": map[string]interface{}{
			"offers":   outcome.OffersCreated,
			"warnings": allWarnings,
			"errors":   []string{},
		},
	}
	if err := jobs.Save(job); err != nil {
		log.WithError(err).Error("failed to mark job succeeded")
	}

	r.metrics.IncDocumentProcessed()
	r.metrics.AddOffersIngested(outcome.OffersCreated)
	log.WithField("offers_created", outcome.OffersCreated).Info("ingestion job completed")
}

func (r *Runner) failJob(job *models.IngestionJob, jobs *repository.JobRepository, docID uuid.UUID, docs *repository.SourceDocumentRepository, reason string) {
	job.Status = models.JobStatusFailed
	job.Logs = models.JSONMap{
		"summary": map[string]interface{}{"offers": 0, "warnings": []string{}, "errors": []string{reason}},
	}
	if err := jobs.Save(job); err != nil {
		r.log.WithError(err).Error("failed to persist failed job state")
	}
	if err := docs.MarkStatus(docID, models.DocumentStatusFailed, nil); err != nil {
		r.log.WithError(err).Error("failed to mark document failed")
	}
}

// ReconcileStaleJobs scans for jobs left `running` past threshold — the
// signature of a process that was killed mid-job — and marks them `failed`,
// per spec §5's startup reconciliation rule.
func ReconcileStaleJobs(db *gorm.DB, threshold time.Duration, log *logrus.Logger) error {
	jobs := repository.NewJobRepository(db)
	stale, err := jobs.FindStaleRunning(time.Now().UTC().Add(-threshold))
	if err != nil {
		return err
	}
	docs := repository.NewSourceDocumentRepository(db)
	for i := range stale {
		job := &stale[i]
		job.Status = models.JobStatusFailed
		job.Logs = models.JSONMap{
			"summary": map[string]interface{}{"offers": 0, "warnings": []string{}, "errors": []string{"reconciled: job left running across process restart"}},
		}
		if err := jobs.Save(job); err != nil {
			log.WithError(err).WithField("job_id", job.ID).Error("failed to reconcile stale job")
			continue
		}
		_ = docs.MarkStatus(job.SourceDocumentID, models.DocumentStatusFailed, nil)
		log.WithField("job_id", job.ID).Warn("reconciled stale running job to failed")
	}
	return nil
}
