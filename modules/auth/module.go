package auth

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

// Module wires the auth service into the application lifecycle.
type Module struct {
	db      *gorm.DB
	repo    *UserRepository
	service *Service
	jwtCfg  JWTConfig
}

// NewModule creates an auth module over the shared database handle.
func NewModule(db *gorm.DB, jwtCfg JWTConfig) *Module {
	return &Module{
		db:     db,
		jwtCfg: jwtCfg,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Init creates the repository, runs migrations and builds the service.
func (m *Module) Init(_ mono.ServiceContainer) error {
	m.repo = NewUserRepository(m.db)
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate user table: %w", err)
	}

	m.service = NewService(m.repo, NewPasswordHasher(), NewJWTManager(m.jwtCfg))
	log.Println("[auth] Migrations applied")
	return nil
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[auth] Module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// GetService returns the auth service.
func (m *Module) GetService() *Service {
	return m.service
}
