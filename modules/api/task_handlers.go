package api

import (
	"strconv"
	"time"

	"github.com/example/task-tracker/domain/errs"
	taskdomain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/task"
	"github.com/gofiber/fiber/v2"
)

// CreateTask handles task creation (Admin only, enforced by route).
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req task.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	claims := currentUser(c)
	t, err := h.tasks.Create(c.UserContext(), &req, claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// GetTask returns a single task.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	t, err := h.tasks.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(t)
}

// ListTasks returns the filtered, sorted, paginated task listing.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	filter, err := parseTaskFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	tasks, err := h.tasks.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(tasks)
}

// UpdateTask applies a partial update to a task.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	var req task.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	claims := currentUser(c)
	t, err := h.tasks.Update(c.UserContext(), c.Params("id"), &req, claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(t)
}

// ChangeTaskStatus overwrites a task's status.
func (h *Handlers) ChangeTaskStatus(c *fiber.Ctx) error {
	var req task.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	claims := currentUser(c)
	t, err := h.tasks.ChangeStatus(c.UserContext(), c.Params("id"), &req, claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(t)
}

// DeleteTask hard-deletes a task.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	claims := currentUser(c)
	if err := h.tasks.Delete(c.UserContext(), c.Params("id"), claims.UserID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(MessageResponse{Message: "Task deleted"})
}

// ExportTasksCSV streams the filtered task set as CSV.
func (h *Handlers) ExportTasksCSV(c *fiber.Ctx) error {
	filter, err := parseTaskFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	data, err := h.tasks.ExportCSV(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tasks.csv"`)
	return c.Status(fiber.StatusOK).Send(data)
}

// GetHistoryRecord returns a single history record.
func (h *Handlers) GetHistoryRecord(c *fiber.Ctx) error {
	record, err := h.tasks.GetHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(record)
}

// GetTaskHistory returns a task's history, newest first. It works for
// deleted tasks too.
func (h *Handlers) GetTaskHistory(c *fiber.Ctx) error {
	records, err := h.tasks.HistoryForTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(records)
}

// ListHistory returns every history record, newest first.
func (h *Handlers) ListHistory(c *fiber.Ctx) error {
	records, err := h.tasks.AllHistory(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(records)
}

// parseTaskFilter builds the task filter from the query string,
// rejecting malformed enum or date values at the boundary.
func parseTaskFilter(c *fiber.Ctx) (taskdomain.Filter, error) {
	var f taskdomain.Filter
	v := errs.NewValidation()

	if s := c.Query("status"); s != "" {
		status, err := taskdomain.ParseStatus(s)
		if err != nil {
			v.Add("status", "Invalid task status")
		} else {
			f.Status = &status
		}
	}
	if s := c.Query("priority"); s != "" {
		priority, err := taskdomain.ParsePriority(s)
		if err != nil {
			v.Add("priority", "Invalid priority value")
		} else {
			f.Priority = &priority
		}
	}

	parseDate := func(name string) *time.Time {
		s := c.Query(name)
		if s == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			v.Add(name, "Invalid date, expected RFC 3339")
			return nil
		}
		return &t
	}
	f.CreatedFrom = parseDate("created_from")
	f.CreatedTo = parseDate("created_to")
	f.DueFrom = parseDate("due_from")
	f.DueTo = parseDate("due_to")

	f.AssigneeID = c.Query("assignee_id")
	f.CreatorID = c.Query("creator_id")
	f.SortBy = c.Query("sort_by")
	f.SortDesc = c.QueryBool("sort_desc")

	if s := c.Query("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			f.Page = n
		} else {
			v.Add("page", "Invalid page number")
		}
	}
	if s := c.Query("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			f.PageSize = n
		} else {
			v.Add("page_size", "Invalid page size")
		}
	}

	if err := v.Err(); err != nil {
		return taskdomain.Filter{}, err
	}
	f.Normalize()
	return f, nil
}
