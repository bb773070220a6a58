// Package task defines the task and task-history entities and their
// persistence layer.
package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a task. The set is closed; transitions
// between any two members are allowed.
type Status int

// Task statuses.
const (
	StatusNew Status = iota
	StatusInProgress
	StatusDone
)

var statusNames = map[Status]string{
	StatusNew:        "New",
	StatusInProgress: "InProgress",
	StatusDone:       "Done",
}

// ParseStatus converts a status name to its Status value.
func ParseStatus(s string) (Status, error) {
	for v, name := range statusNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown task status %q", s)
}

// Valid reports whether the value is a member of the status set.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name, rejecting unknown values.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Priority is the urgency of a task. Int-backed so that sorting by
// priority orders by severity rather than alphabetically.
type Priority int

// Task priorities.
const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

var priorityNames = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
}

// ParsePriority converts a priority name to its Priority value.
func ParsePriority(s string) (Priority, error) {
	for v, name := range priorityNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown task priority %q", s)
}

// Valid reports whether the value is a member of the priority set.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// MarshalJSON encodes the priority by name.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a priority name, rejecting unknown values.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := ParsePriority(name)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Task is a unit of work. CreatorID is set once at creation and never
// reassigned; an empty AssigneeID means the task is unassigned.
type Task struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Status      Status    `gorm:"index" json:"status"`
	Priority    Priority  `gorm:"index" json:"priority"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatorID   string    `gorm:"index;not null" json:"creator_id"`
	AssigneeID  string    `gorm:"index" json:"assignee_id"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// History is one immutable audit record for a task field change.
// Records are append-only and deliberately carry no foreign-key
// constraint to tasks: they must stay queryable after the task is
// hard-deleted.
type History struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	TaskID       string    `gorm:"index;not null" json:"task_id"`
	ChangedByID  string    `gorm:"index;not null" json:"changed_by_id"`
	ChangedField string    `gorm:"not null" json:"changed_field"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	ChangedAt    time.Time `json:"changed_at"`
}

// TableName returns the table name for the History entity.
func (History) TableName() string {
	return "task_histories"
}

// FormatTime renders a timestamp in the canonical string form used for
// history diffing and CSV export. The zero time renders as the empty
// string, which is also how "no prior value" is recorded.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
