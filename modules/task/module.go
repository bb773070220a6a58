package task

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

// Module wires the task service into the application lifecycle. The
// database handle is shared across modules and injected by main; the
// cache is wired after start.
type Module struct {
	db      *gorm.DB
	repo    *domain.Repository
	service *Service
	cache   *cache.Cache
}

// NewModule creates a task module over the shared database handle.
func NewModule(db *gorm.DB) *Module {
	return &Module{db: db}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetCache wires the cache after the cache module has started, and
// builds the service once both dependencies exist.
func (m *Module) SetCache(c *cache.Cache) {
	m.cache = c
	if m.repo != nil && m.service == nil {
		m.service = NewService(m.repo, c)
	}
}

// Init creates the repository and runs migrations.
func (m *Module) Init(_ mono.ServiceContainer) error {
	m.repo = domain.NewRepository(m.db)
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate task tables: %w", err)
	}
	log.Println("[task] Migrations applied")
	return nil
}

// Start creates the service if the cache was wired before start; the
// cache may also arrive afterwards via SetCache.
func (m *Module) Start(_ context.Context) error {
	if m.service == nil && m.cache != nil {
		m.service = NewService(m.repo, m.cache)
	}
	log.Println("[task] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[task] Module stopped")
	return nil
}

// GetService returns the task service.
func (m *Module) GetService() *Service {
	return m.service
}

// GetRepository returns the task repository.
func (m *Module) GetRepository() *domain.Repository {
	return m.repo
}
