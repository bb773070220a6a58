// Package task provides the task mutation, history and query services.
package task

import (
	"context"
	"fmt"
	"log"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Service applies task mutations, appends the audit history for every
// change, and serves filtered list queries through the cache.
type Service struct {
	repo    *domain.Repository
	cache   *cache.Cache
	sfGroup singleflight.Group // dedupes concurrent list misses
}

// NewService creates a task service.
func NewService(repo *domain.Repository, c *cache.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: c,
	}
}

// Create stores a new task for the acting user. The task starts in
// status New with CreatedAt == UpdatedAt, and a single
// "Task" -> "Created" history record brackets the start of its life.
func (s *Service) Create(ctx context.Context, req *CreateTaskRequest, actorID string) (*domain.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &domain.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.StatusNew,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatorID:   actorID,
		AssigneeID:  req.AssigneeID,
	}

	record := historyRecord(t.ID, actorID, "Task", "", "Created",
		fmt.Sprintf("Task created by user %s", actorID))

	if err := s.repo.CreateWithHistory(ctx, t, []domain.History{record}); err != nil {
		return nil, err
	}

	s.invalidateTaskCaches(ctx, t.ID)
	log.Printf("[task] Created task %s by user %s", t.ID, actorID)
	return t, nil
}

// Get retrieves a single task.
func (s *Service) Get(ctx context.Context, id string) (*domain.Task, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the page of tasks matching the filter, read through the
// cache. A cache failure falls through to the store; concurrent misses
// for the same filter shape are collapsed by singleflight.
func (s *Service) List(ctx context.Context, f domain.Filter) ([]domain.Task, error) {
	f.Normalize()
	key := cache.TaskListKey(f.CacheKey())

	var cached []domain.Task
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[task] Cache error for list: %v", err)
	}
	if found {
		return cached, nil
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.repo.FindSortedPaged(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	tasks := val.([]domain.Task)

	if err := s.cache.Set(ctx, key, tasks); err != nil {
		log.Printf("[task] Warning: failed to cache list: %v", err)
	}
	return tasks, nil
}

// Update applies a partial update. Only supplied fields change; each
// field whose canonical value differs from the pre-update snapshot
// yields one history record, written in the same transaction as the
// task itself.
func (s *Service) Update(ctx context.Context, id string, req *UpdateTaskRequest, actorID string) (*domain.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := domain.Snapshot(t)
	req.apply(t)
	t.UpdatedAt = time.Now().UTC()

	var records []domain.History
	for _, change := range domain.Diff(before, t) {
		records = append(records, historyRecord(t.ID, actorID, change.Field, change.Old, change.New, ""))
	}

	if err := s.repo.UpdateWithHistory(ctx, t, records); err != nil {
		return nil, err
	}

	s.invalidateTaskCaches(ctx, t.ID)
	log.Printf("[task] Updated task %s by user %s (%d field changes)", t.ID, actorID, len(records))
	return t, nil
}

// ChangeStatus overwrites the task status. Any member of the status set
// may follow any other; the change is logged unconditionally, even when
// the new status equals the old one.
func (s *Service) ChangeStatus(ctx context.Context, id string, req *ChangeStatusRequest, actorID string) (*domain.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := t.Status.String()
	t.Status = req.Status
	t.UpdatedAt = time.Now().UTC()

	record := historyRecord(t.ID, actorID, "Status", oldStatus, t.Status.String(),
		fmt.Sprintf("Status changed from %s to %s by user %s", oldStatus, t.Status, actorID))

	if err := s.repo.UpdateWithHistory(ctx, t, []domain.History{record}); err != nil {
		return nil, err
	}

	s.invalidateTaskCaches(ctx, t.ID)
	log.Printf("[task] Changed status of task %s to %s by user %s", t.ID, t.Status, actorID)
	return t, nil
}

// Delete hard-deletes a task. The closing "Task" -> "Deleted" history
// record is written in the same transaction, before the delete, and
// stays queryable afterwards.
func (s *Service) Delete(ctx context.Context, id string, actorID string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	record := historyRecord(t.ID, actorID, "Task", "Exists", "Deleted",
		fmt.Sprintf("Task was deleted by user %s", actorID))

	if err := s.repo.DeleteWithHistory(ctx, t, record); err != nil {
		return err
	}

	s.invalidateTaskCaches(ctx, t.ID)
	log.Printf("[task] Deleted task %s by user %s", t.ID, actorID)
	return nil
}

// historyRecord builds one audit record. A non-empty note is appended
// to the new value after a " | " separator.
func historyRecord(taskID, actorID, field, oldValue, newValue, note string) domain.History {
	if note != "" {
		newValue = newValue + " | " + note
	}
	return domain.History{
		ID:           uuid.New().String(),
		TaskID:       taskID,
		ChangedByID:  actorID,
		ChangedField: field,
		OldValue:     oldValue,
		NewValue:     newValue,
		ChangedAt:    time.Now().UTC(),
	}
}

// invalidateTaskCaches evicts every cache entry a task mutation could
// have affected. Eviction failures are logged, never surfaced: the
// cache is best-effort and a stale entry expires with its TTL anyway.
func (s *Service) invalidateTaskCaches(ctx context.Context, taskID string) {
	if err := s.cache.InvalidateTaskLists(ctx); err != nil {
		log.Printf("[task] Warning: failed to invalidate task lists: %v", err)
	}
	if err := s.cache.Delete(ctx, cache.TaskHistoryKey(taskID)); err != nil {
		log.Printf("[task] Warning: failed to invalidate history cache for task %s: %v", taskID, err)
	}
	if err := s.cache.Delete(ctx, cache.KeyAllHistory); err != nil {
		log.Printf("[task] Warning: failed to invalidate global history cache: %v", err)
	}
}
