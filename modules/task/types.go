package task

import (
	"time"

	"github.com/example/task-tracker/domain/errs"
	domain "github.com/example/task-tracker/domain/task"
)

// Field bounds carried over from the API contract.
const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

// CreateTaskRequest is the payload for creating a task.
type CreateTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	DueDate     time.Time       `json:"due_date"`
	AssigneeID  string          `json:"assignee_id"`
}

// Validate checks the request, collecting every field failure.
func (r *CreateTaskRequest) Validate() error {
	v := errs.NewValidation()
	if r.Title == "" {
		v.Add("title", "Title is required")
	} else if len(r.Title) > maxTitleLength {
		v.Add("title", "Title cannot be longer than 200 characters")
	}
	if len(r.Description) > maxDescriptionLength {
		v.Add("description", "Description cannot be longer than 1000 characters")
	}
	if !r.Priority.Valid() {
		v.Add("priority", "Invalid priority value")
	}
	if r.DueDate.IsZero() {
		v.Add("due_date", "Due date is required")
	} else if !r.DueDate.After(time.Now()) {
		v.Add("due_date", "Due date must be in the future")
	}
	return v.Err()
}

// UpdateTaskRequest is a partial update: only non-nil fields are
// applied, everything else keeps its prior value.
type UpdateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *domain.Priority `json:"priority"`
	DueDate     *time.Time       `json:"due_date"`
	AssigneeID  *string          `json:"assignee_id"`
}

// Validate checks the supplied fields only.
func (r *UpdateTaskRequest) Validate() error {
	v := errs.NewValidation()
	if r.Title != nil && len(*r.Title) > maxTitleLength {
		v.Add("title", "Title cannot be longer than 200 characters")
	}
	if r.Description != nil && len(*r.Description) > maxDescriptionLength {
		v.Add("description", "Description cannot be longer than 1000 characters")
	}
	if r.Priority != nil && !r.Priority.Valid() {
		v.Add("priority", "Invalid priority value")
	}
	if r.DueDate != nil && !r.DueDate.After(time.Now()) {
		v.Add("due_date", "Due date must be in the future")
	}
	return v.Err()
}

// apply copies the supplied fields onto the task.
func (r *UpdateTaskRequest) apply(t *domain.Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.DueDate != nil {
		t.DueDate = *r.DueDate
	}
	if r.AssigneeID != nil {
		t.AssigneeID = *r.AssigneeID
	}
}

// ChangeStatusRequest is the payload for a status change.
type ChangeStatusRequest struct {
	Status domain.Status `json:"status"`
}

// Validate checks the requested status is a member of the enum.
func (r *ChangeStatusRequest) Validate() error {
	v := errs.NewValidation()
	if !r.Status.Valid() {
		v.Add("status", "Invalid task status")
	}
	return v.Err()
}
