package comment

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/task-tracker/domain/comment"
	taskdomain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

// Module wires the comment service into the application lifecycle.
type Module struct {
	db       *gorm.DB
	repo     *domain.Repository
	taskRepo *taskdomain.Repository
	service  *Service
	cache    *cache.Cache
}

// NewModule creates a comment module over the shared database handle.
func NewModule(db *gorm.DB) *Module {
	return &Module{db: db}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "comment"
}

// SetCache wires the cache after the cache module has started, and
// builds the service once every dependency exists.
func (m *Module) SetCache(c *cache.Cache) {
	m.cache = c
	if m.repo != nil && m.taskRepo != nil && m.service == nil {
		m.service = NewService(m.repo, m.taskRepo, c)
	}
}

// Init creates the repositories and runs migrations. The task
// repository is stateless over the shared database handle, so the
// module builds its own for task existence checks.
func (m *Module) Init(_ mono.ServiceContainer) error {
	m.repo = domain.NewRepository(m.db)
	m.taskRepo = taskdomain.NewRepository(m.db)
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate comment table: %w", err)
	}
	log.Println("[comment] Migrations applied")
	return nil
}

// Start creates the service if the cache was wired before start; the
// cache may also arrive afterwards via SetCache.
func (m *Module) Start(_ context.Context) error {
	if m.service == nil && m.cache != nil {
		m.service = NewService(m.repo, m.taskRepo, m.cache)
	}
	log.Println("[comment] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[comment] Module stopped")
	return nil
}

// GetService returns the comment service.
func (m *Module) GetService() *Service {
	return m.service
}
