// Package config loads and validates service configuration from file,
// environment, and defaults.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full service configuration. Every option is enumerated
// with a documented default and normalized exactly once at startup.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// SubmitRatePerSecond caps transcription submissions at the
	// boundary; backpressure is deliberately not applied anywhere else.
	SubmitRatePerSecond float64 `mapstructure:"submit_rate_per_second"`
	SubmitBurst         int     `mapstructure:"submit_burst"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// TranscriberConfig describes the external tool invocation.
type TranscriberConfig struct {
	// ExecutablePath points at the transcription tool. Required to serve.
	ExecutablePath string `mapstructure:"executable_path"`

	// Model selects the accuracy/speed tier. Default "medium".
	Model string `mapstructure:"model"`

	// Language is an optional hint; empty or "auto" means auto-detect.
	Language string `mapstructure:"language"`

	// AdditionalArguments is a raw string of extra flags appended to
	// every invocation.
	AdditionalArguments string `mapstructure:"additional_arguments"`

	// OutputFormats lists requested output file formats.
	// Default ["json","srt"].
	OutputFormats []string `mapstructure:"output_formats"`
}

// JobsConfig controls queueing and retention.
type JobsConfig struct {
	// UploadsRoot holds one subdirectory per job. Default "./uploads".
	UploadsRoot string `mapstructure:"uploads_root"`

	// MaxConcurrent is the worker count. Default 1.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// CompletedJobRetention is how long finished jobs and their files
	// stay available. Default 10m.
	CompletedJobRetention time.Duration `mapstructure:"completed_job_retention"`

	// OrphanedMaxAge is the startup-sweep cutoff for directories left
	// by a prior run. Default 30m.
	OrphanedMaxAge time.Duration `mapstructure:"orphaned_max_age"`
}

// DefaultOutputFormats is used when no formats are configured.
var DefaultOutputFormats = []string{"json", "srt"}

// ExtraArgs splits the raw additional-arguments string into argv form.
func (c TranscriberConfig) ExtraArgs() []string {
	return strings.Fields(c.AdditionalArguments)
}

// normalize applies fallbacks and rejects unusable values. It runs once
// at load time, never per request.
func (c *Config) normalize() error {
	if len(c.Transcriber.OutputFormats) == 0 {
		c.Transcriber.OutputFormats = append([]string(nil), DefaultOutputFormats...)
	}
	if strings.TrimSpace(c.Transcriber.Model) == "" {
		c.Transcriber.Model = "medium"
	}

	if c.Jobs.MaxConcurrent < 1 {
		return fmt.Errorf("jobs.max_concurrent must be >= 1 (got %d)", c.Jobs.MaxConcurrent)
	}
	if c.Jobs.CompletedJobRetention <= 0 {
		return fmt.Errorf("jobs.completed_job_retention must be > 0")
	}
	if c.Jobs.OrphanedMaxAge <= 0 {
		return fmt.Errorf("jobs.orphaned_max_age must be > 0")
	}
	if strings.TrimSpace(c.Jobs.UploadsRoot) == "" {
		return fmt.Errorf("jobs.uploads_root is required")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// ValidateForServe checks options that only matter when processing jobs.
func (c *Config) ValidateForServe() error {
	if strings.TrimSpace(c.Transcriber.ExecutablePath) == "" {
		return fmt.Errorf("transcriber.executable_path is required")
	}
	return nil
}
