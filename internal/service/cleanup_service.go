package service

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/pkg/storage"
)

// CleanupService removes backing files whose metadata is gone. Paths are
// queued in the same transaction that deletes the metadata, removed
// best-effort right after commit, and retried by RunPending until
// maxAttempts is reached.
type CleanupService struct {
	db          *gorm.DB
	storage     storage.Storage
	log         *log.Logger
	maxAttempts int
	batchSize   int
}

func NewCleanupService(db *gorm.DB, store storage.Storage, logger *log.Logger, maxAttempts, batchSize int) *CleanupService {
	if logger == nil {
		logger = log.Default()
	}
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	if batchSize < 1 {
		batchSize = 100
	}
	return &CleanupService{
		db:          db,
		storage:     store,
		log:         logger,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
	}
}

// Enqueue records paths for removal using tx, so the queue entry commits or
// rolls back together with the caller's metadata change.
func (s *CleanupService) Enqueue(tx *gorm.DB, paths ...string) ([]model.FileCleanup, error) {
	jobs := make([]model.FileCleanup, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		jobs = append(jobs, model.FileCleanup{Path: p})
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	if err := tx.Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Process attempts each job once. Failures are recorded and left for the
// next RunPending pass; they never surface to the caller.
func (s *CleanupService) Process(ctx context.Context, jobs []model.FileCleanup) {
	for i := range jobs {
		s.process(ctx, &jobs[i])
	}
}

func (s *CleanupService) process(ctx context.Context, job *model.FileCleanup) {
	db := s.db.WithContext(ctx).Model(job)

	if err := s.storage.Delete(ctx, job.Path); err != nil {
		job.Attempts++
		job.LastError = err.Error()
		if uerr := db.Updates(map[string]interface{}{
			"attempts":   job.Attempts,
			"last_error": job.LastError,
		}).Error; uerr != nil {
			s.log.Printf("could not record failure for %s: %v", job.Path, uerr)
		}
		s.log.Printf("could not remove %s (attempt %d/%d): %v", job.Path, job.Attempts, s.maxAttempts, err)
		return
	}

	now := time.Now()
	job.DoneAt = &now
	if err := db.Update("done_at", now).Error; err != nil {
		s.log.Printf("could not mark %s as removed: %v", job.Path, err)
	}
}

// RunPending retries one batch of queued removals and reports how many
// were attempted.
func (s *CleanupService) RunPending(ctx context.Context) (int, error) {
	var jobs []model.FileCleanup
	if err := s.db.WithContext(ctx).
		Where("done_at IS NULL AND attempts < ?", s.maxAttempts).
		Order("id ASC").
		Limit(s.batchSize).
		Find(&jobs).Error; err != nil {
		return 0, err
	}
	s.Process(ctx, jobs)
	return len(jobs), nil
}
