package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/application/dispatcher"
	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/application/service"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/infrastructure/export"
	"github.com/garyjia/conference-requests/internal/infrastructure/external/directory"
	infraLark "github.com/garyjia/conference-requests/internal/infrastructure/external/lark"
	"github.com/garyjia/conference-requests/internal/infrastructure/persistence/repository"
	"github.com/garyjia/conference-requests/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/conference-requests/internal/infrastructure/storage"
	"github.com/garyjia/conference-requests/internal/infrastructure/worker"
	httpapi "github.com/garyjia/conference-requests/internal/interfaces/http"
	"github.com/garyjia/conference-requests/migrations"
	"github.com/garyjia/conference-requests/pkg/database"
	"github.com/garyjia/conference-requests/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *database.DB
	TransactionMgr *sqlite.DB
}

// ServiceDeps holds dependencies for creating application services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	Storage    port.FileStorage
	Roles      *access.Resolver
	Dispatcher dispatcher.Dispatcher
	Approvals  *ApprovalsConfig
	MaxUpload  int64
	Logger     *zap.Logger
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repository instances.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	return &RepositoryBundle{
		Request:    repository.NewRequestRepository(db, logger),
		Attachment: repository.NewAttachmentRepository(db, logger),
	}, nil
}

// ProvideDirectory creates the organization directory for the configured provider.
func ProvideDirectory(cfg *DirectoryConfig, larkCfg *LarkConfig, logger *zap.Logger) (port.DirectoryClient, error) {
	switch cfg.Provider {
	case DirectoryLark:
		client := infraLark.NewSDKClient(infraLark.Config{
			AppID:     larkCfg.AppID,
			AppSecret: larkCfg.AppSecret,
			BaseURL:   larkCfg.BaseURL,
		}, logger)
		logger.Info("Using Lark directory")
		return infraLark.NewDirectory(infraLark.NewContactAPI(client, logger), logger), nil
	case DirectoryStatic:
		logger.Info("Using static directory", zap.Int("entries", len(cfg.Entries)))
		return directory.NewStatic(cfg.Entries), nil
	default:
		return nil, fmt.Errorf("unknown directory provider %q", cfg.Provider)
	}
}

// ProvideStorage creates the attachment file storage.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg.AttachmentDir == "" {
		return nil, fmt.Errorf("attachment directory is required")
	}
	return storage.NewLocalFileStorage(cfg.AttachmentDir, logger)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKeyValueLogger(logger.Named("dispatcher"))))
}

// ProvideWorkflowEngine creates the approval engine and subscribes the
// notification handlers on the dispatcher.
func ProvideWorkflowEngine(repos *RepositoryBundle, roles *access.Resolver, d dispatcher.Dispatcher, approvals *ApprovalsConfig, logger *zap.Logger) workflow.WorkflowEngine {
	kv := utils.NewKeyValueLogger(logger.Named("workflow"))

	notifier := service.NewNotificationService(approvals.EnableEmailNotifications, kv)
	notifier.Register(d)

	return workflow.NewEngine(repos.Request, roles, kv, workflow.WithDispatcher(d))
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}

	kv := utils.NewKeyValueLogger(deps.Logger.Named("service"))
	requests := service.NewRequestService(deps.Repos.Request, deps.Roles, kv)

	writer := export.NewXLSXWriter(deps.Logger, export.WithTitle(deps.Approvals.ListName))

	return &ServiceBundle{
		Requests: requests,
		Views:    service.NewViewService(requests, deps.Roles),
		Attachments: service.NewAttachmentService(
			requests,
			deps.Repos.Request,
			deps.Repos.Attachment,
			deps.Storage,
			deps.Dispatcher,
			deps.MaxUpload,
			kv,
		),
		Reports: service.NewReportService(deps.Repos.Request, deps.Roles, writer, kv),
	}, nil
}

// ProvideWorkers registers the background workers. The session sweeper only
// runs when sessions expire.
func ProvideWorkers(cfg *AuthConfig, sessions *access.SessionCache, logger *zap.Logger) *worker.Manager {
	manager := worker.NewManager(logger.Named("worker"))
	if cfg.SessionTTL > 0 && cfg.SessionSweepInterval > 0 {
		manager.Register(worker.NewSessionSweeper(cfg.SessionSweepInterval, sessions, logger.Named("worker")))
	}
	return manager
}

// ProvideHTTPServer creates the authenticated HTTP API server.
func ProvideHTTPServer(c *Container) *httpapi.Server {
	kv := utils.NewKeyValueLogger(c.logger.Named("http"))

	sessions := access.NewSessionCache(c.directory, c.config.Auth.SessionTTL, kv)
	c.sessions = sessions

	auth := httpapi.NewAuthenticator(httpapi.AuthConfig{
		Secret: c.config.Auth.JWTSecret,
		Issuer: c.config.Auth.Issuer,
	}, sessions, kv)

	return httpapi.NewServer(httpapi.ServerConfig{
		Host:           c.config.Server.Host,
		Port:           c.config.Server.Port,
		ReadTimeout:    c.config.Server.ReadTimeout,
		WriteTimeout:   c.config.Server.WriteTimeout,
		MaxUploadBytes: c.config.Storage.MaxAttachmentBytes,
	}, httpapi.Services{
		Engine:      c.workflow,
		Requests:    c.services.Requests,
		Views:       c.services.Views,
		Attachments: c.services.Attachments,
		Reports:     c.services.Reports,
		Health:      c,
	}, auth, kv)
}
