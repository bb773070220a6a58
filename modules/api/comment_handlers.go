package api

import (
	"github.com/example/task-tracker/modules/comment"
	"github.com/gofiber/fiber/v2"
)

// CreateComment attaches a comment to an existing task.
func (h *Handlers) CreateComment(c *fiber.Ctx) error {
	var req comment.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	claims := currentUser(c)
	created, err := h.comments.Create(c.UserContext(), &req, claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetComment returns a single comment.
func (h *Handlers) GetComment(c *fiber.Ctx) error {
	found, err := h.comments.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(found)
}

// UpdateComment edits a comment's text; author only.
func (h *Handlers) UpdateComment(c *fiber.Ctx) error {
	var req comment.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	claims := currentUser(c)
	updated, err := h.comments.Update(c.UserContext(), c.Params("id"), &req, claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}

// DeleteComment removes a comment; author only.
func (h *Handlers) DeleteComment(c *fiber.Ctx) error {
	claims := currentUser(c)
	if err := h.comments.Delete(c.UserContext(), c.Params("id"), claims.UserID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(MessageResponse{Message: "Comment deleted"})
}

// GetTaskComments returns a task's comments, newest first.
func (h *Handlers) GetTaskComments(c *fiber.Ctx) error {
	comments, err := h.comments.ForTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(comments)
}

// ListComments returns every comment, newest first (Admin only,
// enforced by route).
func (h *Handlers) ListComments(c *fiber.Ctx) error {
	comments, err := h.comments.All(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(comments)
}
