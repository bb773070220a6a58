package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/task-tracker/domain/errs"
	"gorm.io/gorm"
)

// Repository provides database operations for tasks and their history.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs database migrations for the task tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&Task{}, &History{})
}

// GetByID retrieves a task by its ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("task")
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// Exists reports whether a task with the given ID exists.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check task existence: %w", err)
	}
	return count > 0, nil
}

// Find returns every task matching the filter predicates, unpaginated,
// in store-default order. Used by the CSV export.
func (r *Repository) Find(ctx context.Context, f Filter) ([]Task, error) {
	var tasks []Task
	if err := applyFilter(r.db.WithContext(ctx), f).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

// FindSortedPaged returns the page of tasks matching the filter, sorted
// by the requested field. An unrecognized sort field falls back to
// store-default order; ties share that default order too, so further
// ordering within a tie is undefined.
func (r *Repository) FindSortedPaged(ctx context.Context, f Filter) ([]Task, error) {
	f.Normalize()

	query := applyFilter(r.db.WithContext(ctx), f)

	switch strings.ToLower(f.SortBy) {
	case "createdat":
		query = query.Order(orderClause("created_at", f.SortDesc))
	case "duedate":
		query = query.Order(orderClause("due_date", f.SortDesc))
	case "priority":
		query = query.Order(orderClause("priority", f.SortDesc))
	}

	var tasks []Task
	err := query.
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateWithHistory inserts a task and its history records in one
// transaction, so a failed history append rolls the creation back.
func (r *Repository) CreateWithHistory(ctx context.Context, t *Task, records []History) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if len(records) > 0 {
			if err := tx.Create(&records).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// UpdateWithHistory saves a task and appends its history records in one
// transaction.
func (r *Repository) UpdateWithHistory(ctx context.Context, t *Task, records []History) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		if len(records) > 0 {
			if err := tx.Create(&records).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteWithHistory appends the final history record and hard-deletes
// the task in one transaction. The history row has no foreign key to
// the task, so it survives the delete.
func (r *Repository) DeleteWithHistory(ctx context.Context, t *Task, record History) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.Delete(&Task{}, "id = ?", t.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// HistoryByID retrieves a single history record.
func (r *Repository) HistoryByID(ctx context.Context, id string) (*History, error) {
	var h History
	if err := r.db.WithContext(ctx).First(&h, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("history record")
		}
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return &h, nil
}

// HistoryForTask returns the history records for a task, newest first.
func (r *Repository) HistoryForTask(ctx context.Context, taskID string) ([]History, error) {
	var records []History
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("changed_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list task history: %w", err)
	}
	return records, nil
}

// AllHistory returns every history record, newest first.
func (r *Repository) AllHistory(ctx context.Context) ([]History, error) {
	var records []History
	err := r.db.WithContext(ctx).
		Order("changed_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return records, nil
}

// applyFilter builds the WHERE clause for the specified filter fields.
func applyFilter(db *gorm.DB, f Filter) *gorm.DB {
	query := db.Model(&Task{})
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.Priority != nil {
		query = query.Where("priority = ?", *f.Priority)
	}
	if f.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		query = query.Where("created_at <= ?", *f.CreatedTo)
	}
	if f.DueFrom != nil {
		query = query.Where("due_date >= ?", *f.DueFrom)
	}
	if f.DueTo != nil {
		query = query.Where("due_date <= ?", *f.DueTo)
	}
	if f.AssigneeID != "" {
		query = query.Where("assignee_id = ?", f.AssigneeID)
	}
	if f.CreatorID != "" {
		query = query.Where("creator_id = ?", f.CreatorID)
	}
	return query
}

func orderClause(column string, desc bool) string {
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
