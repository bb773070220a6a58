package task

import (
	"context"
	"log"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
)

// History records are written only as a side effect of task mutations;
// these methods are the read side.

// GetHistory retrieves a single history record by its ID.
func (s *Service) GetHistory(ctx context.Context, id string) (*domain.History, error) {
	return s.repo.HistoryByID(ctx, id)
}

// HistoryForTask returns a task's history, newest first, read through
// the cache. The listing works for deleted tasks too.
func (s *Service) HistoryForTask(ctx context.Context, taskID string) ([]domain.History, error) {
	key := cache.TaskHistoryKey(taskID)

	var cached []domain.History
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[task] Cache error for task history: %v", err)
	}
	if found {
		return cached, nil
	}

	records, err := s.repo.HistoryForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, records); err != nil {
		log.Printf("[task] Warning: failed to cache task history: %v", err)
	}
	return records, nil
}

// AllHistory returns every history record, newest first, read through
// the cache.
func (s *Service) AllHistory(ctx context.Context) ([]domain.History, error) {
	var cached []domain.History
	found, err := s.cache.Get(ctx, cache.KeyAllHistory, &cached)
	if err != nil {
		log.Printf("[task] Cache error for history listing: %v", err)
	}
	if found {
		return cached, nil
	}

	records, err := s.repo.AllHistory(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.KeyAllHistory, records); err != nil {
		log.Printf("[task] Warning: failed to cache history listing: %v", err)
	}
	return records, nil
}
