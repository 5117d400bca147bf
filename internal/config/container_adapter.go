package config

import (
	"github.com/garyjia/conference-requests/internal/container"
	"github.com/garyjia/conference-requests/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Approvals: container.ApprovalsConfig{
			ListName:                 c.Approvals.ListName,
			OrgDevApprovers:          c.Approvals.OrgDevApprovers,
			AccountingApprovers:      c.Approvals.AccountingApprovers,
			EnableEmailNotifications: c.Approvals.EnableEmailNotifications,
		},
		Auth: container.AuthConfig{
			JWTSecret:            c.Auth.JWTSecret,
			Issuer:               c.Auth.Issuer,
			SessionTTL:           c.Auth.SessionTTL,
			SessionSweepInterval: c.Auth.SessionSweepInterval,
		},
		Directory: container.DirectoryConfig{
			Provider: c.Directory.Provider,
			Entries:  c.Directory.Static,
		},
		Lark: container.LarkConfig{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
		},
		Storage: container.StorageConfig{
			AttachmentDir:      c.Storage.AttachmentDir,
			MaxAttachmentBytes: c.Storage.MaxAttachmentBytes,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}

// ToLoggerConfig converts the logger section for utils.NewLogger
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
