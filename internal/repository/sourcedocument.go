// internal/repository/sourcedocument.go
package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pricebot/pricebot/internal/models"
)

type SourceDocumentRepository struct {
	db *gorm.DB
}

func NewSourceDocumentRepository(db *gorm.DB) *SourceDocumentRepository {
	return &SourceDocumentRepository{db: db}
}

func (r *SourceDocumentRepository) Create(d *models.SourceDocument) error {
	return r.db.Create(d).Error
}

func (r *SourceDocumentRepository) Get(id uuid.UUID) (*models.SourceDocument, error) {
	var d models.SourceDocument
	if err := r.db.First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *SourceDocumentRepository) Save(d *models.SourceDocument) error {
	return r.db.Save(d).Error
}

func (r *SourceDocumentRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.SourceDocument{}, "id = ?", id).Error
}

func (r *SourceDocumentRepository) List(limit, offset int) ([]models.SourceDocument, int64, error) {
	var docs []models.SourceDocument
	var total int64
	if err := r.db.Model(&models.SourceDocument{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.Order("created_at desc").Limit(limit).Offset(offset).Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// MarkStatus transitions a document's status. Terminal statuses are never
// overwritten again by the job runner (§3's immutable-once-terminal rule).
func (r *SourceDocumentRepository) MarkStatus(id uuid.UUID, status models.SourceDocumentStatus, extra models.JSONMap) error {
	updates := map[string]interface{}{"status": status}
	if extra != nil {
		updates["extra"] = extra
	}
	if status.IsTerminal() {
		now := time.Now().UTC()
		updates["ingest_completed_at"] = now
	}
	terminal := []models.SourceDocumentStatus{models.DocumentStatusProcessed, models.DocumentStatusProcessedWithWarnings, models.DocumentStatusFailed}
	return r.db.Model(&models.SourceDocument{}).Where("id = ? AND status NOT IN ?", id, terminal).Updates(updates).Error
}

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(j *models.IngestionJob) error {
	return r.db.Create(j).Error
}

func (r *JobRepository) Get(id uuid.UUID) (*models.IngestionJob, error) {
	var j models.IngestionJob
	if err := r.db.First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobRepository) Save(j *models.IngestionJob) error {
	return r.db.Save(j).Error
}

// FindStaleRunning returns jobs stuck in "running" older than olderThan,
// used at startup to reconcile jobs orphaned by an unclean shutdown (§5).
func (r *JobRepository) FindStaleRunning(olderThan time.Time) ([]models.IngestionJob, error) {
	var jobs []models.IngestionJob
	err := r.db.Where("status = ? AND updated_at < ?", models.JobStatusRunning, olderThan).Find(&jobs).Error
	return jobs, err
}
