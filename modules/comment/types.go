package comment

import (
	"github.com/example/task-tracker/domain/comment"
	"github.com/example/task-tracker/domain/errs"
)

// CreateCommentRequest is the payload for attaching a comment to a task.
type CreateCommentRequest struct {
	TaskID string `json:"task_id"`
	Text   string `json:"text"`
}

// Validate checks the request, collecting every field failure.
func (r *CreateCommentRequest) Validate() error {
	v := errs.NewValidation()
	if r.TaskID == "" {
		v.Add("task_id", "Task ID is required")
	}
	if r.Text == "" {
		v.Add("text", "Text is required")
	} else if len(r.Text) > comment.MaxTextLength {
		v.Add("text", "Text cannot exceed 100 characters")
	}
	return v.Err()
}

// UpdateCommentRequest is the payload for editing a comment's text.
type UpdateCommentRequest struct {
	Text string `json:"text"`
}

// Validate checks the new text.
func (r *UpdateCommentRequest) Validate() error {
	v := errs.NewValidation()
	if r.Text == "" {
		v.Add("text", "Text is required")
	} else if len(r.Text) > comment.MaxTextLength {
		v.Add("text", "Text cannot exceed 100 characters")
	}
	return v.Err()
}
