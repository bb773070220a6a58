package task

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
)

var csvHeader = []string{
	"Id", "Title", "Description", "Status", "Priority",
	"DueDate", "CreatedAt", "UpdatedAt", "CreatorId", "AssigneeId",
}

// ExportCSV serializes every task matching the filter (unpaginated) as
// CSV, using the same canonical string forms as history diffing.
func (s *Service) ExportCSV(ctx context.Context, f domain.Filter) ([]byte, error) {
	tasks, err := s.repo.Find(ctx, f)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range tasks {
		t := &tasks[i]
		row := []string{
			t.ID,
			t.Title,
			t.Description,
			t.Status.String(),
			t.Priority.String(),
			domain.FormatTime(t.DueDate),
			domain.FormatTime(t.CreatedAt),
			domain.FormatTime(t.UpdatedAt),
			t.CreatorID,
			t.AssigneeID,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
