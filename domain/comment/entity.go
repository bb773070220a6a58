// Package comment defines the comment entity and its persistence layer.
package comment

import (
	"time"
)

// MaxTextLength bounds the comment body.
const MaxTextLength = 100

// Comment is a user remark attached to a task. AuthorID and TaskID are
// immutable after creation; only the author may mutate the comment.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	AuthorID  string    `gorm:"index;not null" json:"author_id"`
	TaskID    string    `gorm:"index;not null" json:"task_id"`
}

// TableName returns the table name for the Comment entity.
func (Comment) TableName() string {
	return "comments"
}
