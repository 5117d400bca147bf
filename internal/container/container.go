package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/dispatcher"
	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/application/service"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/domain/event"
	"github.com/garyjia/conference-requests/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/conference-requests/internal/infrastructure/worker"
	httpapi "github.com/garyjia/conference-requests/internal/interfaces/http"
	"github.com/garyjia/conference-requests/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	sqlDB        *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - External
	directory port.DirectoryClient
	storage   port.FileStorage

	// Application
	roles      *access.Resolver
	dispatcher dispatcher.Dispatcher
	workflow   workflow.WorkflowEngine
	services   *ServiceBundle
	sessions   *access.SessionCache

	// Interface
	server *httpapi.Server

	// Workers
	workers *worker.Manager

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Request    port.RequestRepository
	Attachment port.AttachmentRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Requests    service.RequestService
	Views       service.ViewService
	Attachments service.AttachmentService
	Reports     service.ReportService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// ErrUnhealthy is returned by Health when any component is down
var ErrUnhealthy = errors.New("container unhealthy")

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database, migrations and repositories
// 2. Directory and attachment storage
// 3. Dispatcher, notification handlers and workflow engine
// 4. Application services
// 5. HTTP server and session cache
// 6. Background workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initExternal(); err != nil {
		return fmt.Errorf("failed to initialize external components: %w", err)
	}
	c.logger.Info("Directory and storage initialized")

	c.roles = access.NewResolver(c.config.Approvals.OrgDevApprovers, c.config.Approvals.AccountingApprovers)
	c.dispatcher = ProvideDispatcher(c.logger)
	c.workflow = ProvideWorkflowEngine(c.repositories, c.roles, c.dispatcher, &c.config.Approvals, c.logger)
	c.logger.Info("Dispatcher and workflow engine initialized",
		zap.Strings("status_changed_handlers", c.dispatcher.Handlers(event.TypeStatusChanged)))

	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		Storage:    c.storage,
		Roles:      c.roles,
		Dispatcher: c.dispatcher,
		Approvals:  &c.config.Approvals,
		MaxUpload:  c.config.Storage.MaxAttachmentBytes,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	c.server = ProvideHTTPServer(c)

	c.workers = ProvideWorkers(&c.config.Auth, c.sessions, c.logger)
	if err := c.workers.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started", zap.Int("count", c.workers.Count()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	// Pending async handlers finish before the database goes away
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Status returns health status of all components.
func (c *Container) Status(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	check := func(name string, healthy bool, message string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: message}
		if !healthy {
			status.Overall = false
		}
	}

	if c.sqlDB == nil {
		check("database", false, "not initialized")
	} else if err := c.sqlDB.Health(ctx); err != nil {
		check("database", false, fmt.Sprintf("ping failed: %v", err))
	} else {
		check("database", true, "")
	}

	if c.dispatcher == nil {
		check("dispatcher", false, "not initialized")
	} else {
		check("dispatcher", true, "")
	}

	if c.workers == nil {
		check("workers", false, "not initialized")
	} else {
		check("workers", c.workers.IsRunning(), fmt.Sprintf("worker count: %d", c.workers.Count()))
	}

	if c.sessions == nil {
		check("sessions", false, "not initialized")
	} else {
		check("sessions", true, fmt.Sprintf("cached sessions: %d", c.sessions.Len()))
	}

	return status
}

// Health reports ErrUnhealthy naming the first failing component
func (c *Container) Health(ctx context.Context) error {
	status := c.Status(ctx)
	if status.Overall {
		return nil
	}
	for name, component := range status.Components {
		if !component.Healthy {
			return fmt.Errorf("%w: %s: %s", ErrUnhealthy, name, component.Message)
		}
	}
	return ErrUnhealthy
}

func (c *Container) initDatabase(ctx context.Context) error {
	bundle, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.sqlDB = bundle.SqlDB
	c.db = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.sqlDB.Close()
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initExternal() error {
	dir, err := ProvideDirectory(&c.config.Directory, &c.config.Lark, c.logger)
	if err != nil {
		return err
	}
	c.directory = dir

	files, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.storage = files
	return nil
}

// Getters for accessing container components

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Directory returns the organization directory.
func (c *Container) Directory() port.DirectoryClient {
	return c.directory
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// WorkflowEngine returns the approval engine.
func (c *Container) WorkflowEngine() workflow.WorkflowEngine {
	return c.workflow
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Server returns the HTTP API server.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
