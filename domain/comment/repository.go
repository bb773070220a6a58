package comment

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/task-tracker/domain/errs"
	"gorm.io/gorm"
)

// Repository provides database operations for comments.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new comment repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs database migrations for the comment table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&Comment{})
}

// Create inserts a new comment.
func (r *Repository) Create(ctx context.Context, c *Comment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by its ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("comment")
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// Update saves a modified comment.
func (r *Repository) Update(ctx context.Context, c *Comment) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

// Delete removes a comment.
func (r *Repository) Delete(ctx context.Context, c *Comment) error {
	if err := r.db.WithContext(ctx).Delete(&Comment{}, "id = ?", c.ID).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// ForTask returns the comments attached to a task, newest first.
func (r *Repository) ForTask(ctx context.Context, taskID string) ([]Comment, error) {
	var comments []Comment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list task comments: %w", err)
	}
	return comments, nil
}

// All returns every comment in the system, newest first.
func (r *Repository) All(ctx context.Context) ([]Comment, error) {
	var comments []Comment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
