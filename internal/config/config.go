package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/conference-requests/internal/infrastructure/external/directory"
	"github.com/garyjia/conference-requests/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Approvals ApprovalsConfig `mapstructure:"approvals"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Lark      LarkConfig      `mapstructure:"lark"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ApprovalsConfig holds the approver allow-lists and related settings
type ApprovalsConfig struct {
	ListName                 string `mapstructure:"list_name"`
	OrgDevApprovers          string `mapstructure:"org_dev_approvers"`
	AccountingApprovers      string `mapstructure:"accounting_approvers"`
	EnableEmailNotifications bool   `mapstructure:"enable_email_notifications"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecret            string        `mapstructure:"jwt_secret"`
	Issuer               string        `mapstructure:"issuer"`
	SessionTTL           time.Duration `mapstructure:"session_ttl"`
	SessionSweepInterval time.Duration `mapstructure:"session_sweep_interval"`
}

// DirectoryConfig selects where manager and report lookups come from
type DirectoryConfig struct {
	Provider string            `mapstructure:"provider"`
	Static   []directory.Entry `mapstructure:"static"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// StorageConfig holds attachment storage configuration
type StorageConfig struct {
	AttachmentDir      string `mapstructure:"attachment_dir"`
	MaxAttachmentBytes int64  `mapstructure:"max_attachment_bytes"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/conference_requests.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("approvals.list_name", "Conference Requests")
	v.SetDefault("approvals.enable_email_notifications", false)

	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.session_ttl", 15*time.Minute)
	v.SetDefault("auth.session_sweep_interval", 5*time.Minute)

	v.SetDefault("directory.provider", "static")

	v.SetDefault("storage.attachment_dir", "attachments")
	v.SetDefault("storage.max_attachment_bytes", 32<<20)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"auth.jwt_secret":                "JWT_SECRET",
		"lark.app_id":                    "LARK_APP_ID",
		"lark.app_secret":                "LARK_APP_SECRET",
		"approvals.org_dev_approvers":    "ORG_DEV_APPROVERS",
		"approvals.accounting_approvers": "ACCOUNTING_APPROVERS",
		"directory.provider":             "DIRECTORY_PROVIDER",
		"database.path":                  "DATABASE_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	switch c.Directory.Provider {
	case "lark":
		if c.Lark.AppID == "" || c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_id and lark.app_secret are required for the lark directory")
		}
	case "static":
		for i, entry := range c.Directory.Static {
			if err := utils.ValidateEmail(entry.Email); err != nil {
				return fmt.Errorf("directory.static[%d]: %w", i, err)
			}
			if entry.Manager != "" {
				if err := utils.ValidateEmail(entry.Manager); err != nil {
					return fmt.Errorf("directory.static[%d].manager: %w", i, err)
				}
			}
		}
	default:
		return fmt.Errorf("directory.provider must be lark or static, got %q", c.Directory.Provider)
	}

	if err := utils.ValidateEmailList(c.Approvals.OrgDevApprovers); err != nil {
		return fmt.Errorf("approvals.org_dev_approvers: %w", err)
	}
	if err := utils.ValidateEmailList(c.Approvals.AccountingApprovers); err != nil {
		return fmt.Errorf("approvals.accounting_approvers: %w", err)
	}

	if c.Storage.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("storage.max_attachment_bytes must be positive")
	}

	return nil
}
