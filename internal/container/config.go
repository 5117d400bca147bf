// Package container provides dependency injection and lifecycle management
// for the conference request service.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/conference-requests/internal/infrastructure/external/directory"
)

// Directory providers
const (
	DirectoryLark   = "lark"
	DirectoryStatic = "static"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database  DatabaseConfig
	Approvals ApprovalsConfig
	Auth      AuthConfig
	Directory DirectoryConfig
	Lark      LarkConfig
	Storage   StorageConfig
	Server    ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ApprovalsConfig holds the approval chain settings read once at startup.
type ApprovalsConfig struct {
	// ListName titles exported reports
	ListName string

	// Semicolon-delimited approver addresses
	OrgDevApprovers     string
	AccountingApprovers string

	EnableEmailNotifications bool
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string

	// SessionTTL bounds how long cached directory lookups live
	SessionTTL time.Duration

	// SessionSweepInterval is how often expired sessions are evicted
	SessionSweepInterval time.Duration
}

// DirectoryConfig selects the organization directory.
type DirectoryConfig struct {
	// Provider is "lark" or "static"
	Provider string

	// Static entries, used when Provider is "static"
	Entries []directory.Entry
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// AttachmentDir is the base directory for attachments
	AttachmentDir string

	// MaxAttachmentBytes limits one upload request body
	MaxAttachmentBytes int64
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/conference_requests.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Approvals: ApprovalsConfig{
			ListName: "Conference Requests",
		},
		Auth: AuthConfig{
			SessionTTL:           15 * time.Minute,
			SessionSweepInterval: 5 * time.Minute,
		},
		Directory: DirectoryConfig{
			Provider: DirectoryStatic,
		},
		Storage: StorageConfig{
			AttachmentDir:      "attachments",
			MaxAttachmentBytes: 32 << 20,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	switch c.Directory.Provider {
	case DirectoryLark:
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required for the lark directory")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required for the lark directory")
		}
	case DirectoryStatic:
	default:
		return fmt.Errorf("unknown directory provider %q", c.Directory.Provider)
	}

	if c.Storage.AttachmentDir == "" {
		return fmt.Errorf("storage.attachment_dir is required")
	}
	if c.Storage.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("storage.max_attachment_bytes must be positive")
	}

	return nil
}
