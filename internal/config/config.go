// Package config loads mail-task definitions from YAML files and SMTP
// server defaults from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/flowmail/mailtask/internal/mail"
	"github.com/flowmail/mailtask/internal/storage"
)

// StorageConfig selects the blob-storage backends available for
// attachment URIs.
type StorageConfig struct {
	// BaseDir roots relative local attachment paths. Empty allows
	// absolute paths anywhere.
	BaseDir string `yaml:"baseDir"`

	// S3 enables the s3:// backend when present.
	S3 *storage.S3Config `yaml:"s3"`
}

// TaskFile is the on-disk shape of one mail-task invocation.
type TaskFile struct {
	mail.Task `yaml:",inline"`

	Storage StorageConfig `yaml:"storage"`
}

// LoadTaskFile reads and parses a task definition from path.
func LoadTaskFile(path string) (*TaskFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task file %q: %w", path, err)
	}

	var tf TaskFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("parsing task file %q: %w", path, err)
	}
	return &tf, nil
}

// SMTPDefaults holds environment-sourced fallbacks for server fields the
// task file leaves unset, so credentials can stay out of task definitions.
type SMTPDefaults struct {
	Host              string `envconfig:"MAILTASK_SMTP_HOST"`
	Port              int    `envconfig:"MAILTASK_SMTP_PORT"`
	Username          string `envconfig:"MAILTASK_SMTP_USERNAME"`
	Password          string `envconfig:"MAILTASK_SMTP_PASSWORD"`
	TransportStrategy string `envconfig:"MAILTASK_SMTP_STRATEGY"`
	From              string `envconfig:"MAILTASK_SMTP_FROM"`

	// LogLevel sets the minimum log level (debug, info, warn, error).
	LogLevel string `envconfig:"MAILTASK_LOG_LEVEL" default:"info"`
}

// LoadSMTPDefaults reads SMTPDefaults from environment variables.
func LoadSMTPDefaults() (*SMTPDefaults, error) {
	var d SMTPDefaults
	if err := envconfig.Process("", &d); err != nil {
		return nil, fmt.Errorf("loading smtp defaults: %w", err)
	}
	return &d, nil
}

// ApplyTo fills unset server fields of task from the environment defaults.
// Values present in the task file always win.
func (d *SMTPDefaults) ApplyTo(task *mail.Task) {
	if task.Host == "" {
		task.Host = d.Host
	}
	if task.Port == 0 {
		task.Port = d.Port
	}
	if task.Username == "" {
		task.Username = d.Username
	}
	if task.Password == "" {
		task.Password = d.Password
	}
	if task.TransportStrategy == "" {
		task.TransportStrategy = mail.TransportStrategy(d.TransportStrategy)
	}
	if task.From == "" {
		task.From = d.From
	}
}

// SlogLevel converts the LogLevel string to a slog.Level. Unknown values
// default to slog.LevelInfo.
func (d *SMTPDefaults) SlogLevel() slog.Level {
	switch d.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
