// Package comment provides CRUD over task comments with ownership
// checks on mutation.
package comment

import (
	"context"
	"log"
	"time"

	domain "github.com/example/task-tracker/domain/comment"
	"github.com/example/task-tracker/domain/errs"
	taskdomain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
	"github.com/google/uuid"
)

// Service handles comment operations. Mutations are author-only: there
// is no admin override.
type Service struct {
	repo     *domain.Repository
	taskRepo *taskdomain.Repository
	cache    *cache.Cache
}

// NewService creates a comment service. The task repository is needed
// to validate that a comment's task exists at creation time.
func NewService(repo *domain.Repository, taskRepo *taskdomain.Repository, c *cache.Cache) *Service {
	return &Service{
		repo:     repo,
		taskRepo: taskRepo,
		cache:    c,
	}
}

// Create attaches a comment to an existing task on behalf of the
// acting user.
func (s *Service) Create(ctx context.Context, req *CreateCommentRequest, authorID string) (*domain.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.taskRepo.Exists(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.NotFound("task")
	}

	c := &domain.Comment{
		ID:        uuid.New().String(),
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
		AuthorID:  authorID,
		TaskID:    req.TaskID,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.invalidateCommentCaches(ctx, c.TaskID)
	log.Printf("[comment] Created comment %s on task %s by user %s", c.ID, c.TaskID, authorID)
	return c, nil
}

// Get retrieves a single comment.
func (s *Service) Get(ctx context.Context, id string) (*domain.Comment, error) {
	return s.repo.GetByID(ctx, id)
}

// Update edits a comment's text. Only the original author may do so.
func (s *Service) Update(ctx context.Context, id string, req *UpdateCommentRequest, actorID string) (*domain.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != actorID {
		log.Printf("[comment] User %s denied update of comment %s owned by %s", actorID, id, c.AuthorID)
		return nil, errs.ErrPermissionDenied
	}

	c.Text = req.Text
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.invalidateCommentCaches(ctx, c.TaskID)
	log.Printf("[comment] Updated comment %s by user %s", id, actorID)
	return c, nil
}

// Delete removes a comment. Only the original author may do so.
func (s *Service) Delete(ctx context.Context, id string, actorID string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != actorID {
		log.Printf("[comment] User %s denied delete of comment %s owned by %s", actorID, id, c.AuthorID)
		return errs.ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, c); err != nil {
		return err
	}

	s.invalidateCommentCaches(ctx, c.TaskID)
	log.Printf("[comment] Deleted comment %s by user %s", id, actorID)
	return nil
}

// ForTask returns a task's comments, newest first, read through the
// cache.
func (s *Service) ForTask(ctx context.Context, taskID string) ([]domain.Comment, error) {
	key := cache.TaskCommentsKey(taskID)

	var cached []domain.Comment
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[comment] Cache error for task comments: %v", err)
	}
	if found {
		return cached, nil
	}

	comments, err := s.repo.ForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, comments); err != nil {
		log.Printf("[comment] Warning: failed to cache task comments: %v", err)
	}
	return comments, nil
}

// All returns every comment, newest first, read through the cache.
func (s *Service) All(ctx context.Context) ([]domain.Comment, error) {
	var cached []domain.Comment
	found, err := s.cache.Get(ctx, cache.KeyAllComments, &cached)
	if err != nil {
		log.Printf("[comment] Cache error for comment listing: %v", err)
	}
	if found {
		return cached, nil
	}

	comments, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.KeyAllComments, comments); err != nil {
		log.Printf("[comment] Warning: failed to cache comment listing: %v", err)
	}
	return comments, nil
}

// invalidateCommentCaches evicts the task's comment listing and the
// global one. Failures are logged, never surfaced.
func (s *Service) invalidateCommentCaches(ctx context.Context, taskID string) {
	if err := s.cache.Delete(ctx, cache.TaskCommentsKey(taskID)); err != nil {
		log.Printf("[comment] Warning: failed to invalidate comments cache for task %s: %v", taskID, err)
	}
	if err := s.cache.Delete(ctx, cache.KeyAllComments); err != nil {
		log.Printf("[comment] Warning: failed to invalidate global comments cache: %v", err)
	}
}
