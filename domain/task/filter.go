package task

import (
	"fmt"
	"strings"
	"time"
)

// Pagination bounds. PageSize is capped to keep result sets bounded.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter is the set of optional predicates used to select tasks.
// Unset fields impose no constraint; specified fields combine with AND
// semantics. An empty AssigneeID or CreatorID means "no constraint",
// not "unassigned".
type Filter struct {
	Status      *Status
	Priority    *Priority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	DueFrom     *time.Time
	DueTo       *time.Time
	AssigneeID  string
	CreatorID   string

	// SortBy is one of "createdat", "duedate", "priority" (case
	// insensitive). Anything else falls back to store-default order.
	SortBy   string
	SortDesc bool

	Page     int // 1-based; values below 1 are normalized to 1
	PageSize int
}

// Normalize clamps pagination to sane bounds.
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// CacheKey derives a stable cache key from the full filter shape.
// Two filters selecting the same result set produce the same key.
func (f Filter) CacheKey() string {
	var b strings.Builder
	writePart := func(s string) {
		b.WriteString(s)
		b.WriteByte('|')
	}

	if f.Status != nil {
		writePart(f.Status.String())
	} else {
		writePart("")
	}
	if f.Priority != nil {
		writePart(f.Priority.String())
	} else {
		writePart("")
	}
	for _, t := range []*time.Time{f.CreatedFrom, f.CreatedTo, f.DueFrom, f.DueTo} {
		if t != nil {
			writePart(FormatTime(*t))
		} else {
			writePart("")
		}
	}
	writePart(f.AssigneeID)
	writePart(f.CreatorID)
	writePart(strings.ToLower(f.SortBy))
	writePart(fmt.Sprintf("%t", f.SortDesc))
	writePart(fmt.Sprintf("%d:%d", f.Page, f.PageSize))

	return b.String()
}
