// Package api is the HTTP transport: routing, authorization
// enforcement, and error-to-status mapping.
package api

import (
	"context"
	"fmt"
	"log"

	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/comment"
	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Handlers bundles the service dependencies of the HTTP handlers.
type Handlers struct {
	auth     *auth.Service
	tasks    *task.Service
	comments *comment.Service
}

// Module runs the Fiber HTTP server.
type Module struct {
	app      *fiber.App
	port     int
	auth     *auth.Service
	tasks    *task.Service
	comments *comment.Service
	cache    *cache.Cache
}

// NewModule creates an API module listening on the given port.
func NewModule(port int) *Module {
	return &Module{port: port}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// SetServices wires the service dependencies after the other modules
// have started.
func (m *Module) SetServices(a *auth.Service, t *task.Service, c *comment.Service, ch *cache.Cache) {
	m.auth = a
	m.tasks = t
	m.comments = c
	m.cache = ch
}

// Init initializes the module.
func (m *Module) Init(_ mono.ServiceContainer) error {
	return nil
}

// Start builds the Fiber app and begins serving.
func (m *Module) Start(_ context.Context) error {
	if m.auth == nil || m.tasks == nil || m.comments == nil {
		return fmt.Errorf("api module not initialized: services not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(fmt.Sprintf(":%d", m.port)); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%d", m.port)
	return nil
}

// Stop shuts down the HTTP server.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// setupRoutes configures all API routes.
func (m *Module) setupRoutes() {
	h := &Handlers{
		auth:     m.auth,
		tasks:    m.tasks,
		comments: m.comments,
	}

	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	m.app.Get("/cache/stats", func(c *fiber.Ctx) error {
		return c.JSON(m.cache.GetStats())
	})

	v1 := m.app.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)

	protected := v1.Group("")
	protected.Use(AuthMiddleware(m.auth))

	protected.Post("/auth/logout", h.Logout)

	// Task creation is Admin-gated; everything else needs only a
	// valid token.
	protected.Post("/tasks", RequireAdmin(), h.CreateTask)
	protected.Get("/tasks", h.ListTasks)
	protected.Get("/tasks/export", h.ExportTasksCSV)
	protected.Get("/tasks/:id", h.GetTask)
	protected.Put("/tasks/:id", h.UpdateTask)
	protected.Patch("/tasks/:id/status", h.ChangeTaskStatus)
	protected.Delete("/tasks/:id", h.DeleteTask)
	protected.Get("/tasks/:id/comments", h.GetTaskComments)
	protected.Get("/tasks/:id/history", h.GetTaskHistory)

	protected.Post("/comments", h.CreateComment)
	protected.Get("/comments", RequireAdmin(), h.ListComments)
	protected.Get("/comments/:id", h.GetComment)
	protected.Put("/comments/:id", h.UpdateComment)
	protected.Delete("/comments/:id", h.DeleteComment)

	protected.Get("/history", h.ListHistory)
	protected.Get("/history/:id", h.GetHistoryRecord)
}
