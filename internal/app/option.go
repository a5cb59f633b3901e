package app

import (
	"io"

	"github.com/sadopc/studyr/internal/config"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *config.Config
	configPath string
	logOutput  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath names the file watched for live configuration changes.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithLogOutput sends logs to w instead of the configured log file.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
