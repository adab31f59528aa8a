// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the facet.yaml configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/facet/services/facet/sitter"
	"github.com/AleutianAI/facet/services/facet/workspace"
)

// FileName is the default configuration file name.
const FileName = "facet.yaml"

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Config is the full configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Import    ImportConfig    `yaml:"import"`
	Storage   StorageConfig   `yaml:"storage"`
	Workspace WorkspaceConfig `yaml:"workspace"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Dir receives a log file per run when set. "~" is expanded.
	Dir string `yaml:"dir,omitempty"`

	// JSON switches the console output to JSON.
	JSON bool `yaml:"json"`
}

// ImportConfig configures the importer.
type ImportConfig struct {
	// MaxFileSize is the largest imported file in bytes.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`
}

// StorageConfig configures the snapshot store.
type StorageConfig struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string `yaml:"path" validate:"required_without=InMemory"`

	// InMemory keeps snapshots for the lifetime of the process only.
	InMemory bool `yaml:"in_memory"`
}

// WorkspaceConfig configures loading and watching.
type WorkspaceConfig struct {
	// Concurrency bounds the number of files loaded at once.
	Concurrency int `yaml:"concurrency" validate:"gte=1,lte=256"`

	// Debounce is the watcher's quiet period before reporting changes.
	Debounce time.Duration `yaml:"debounce" validate:"gte=1ms"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Import:  ImportConfig{MaxFileSize: sitter.DefaultMaxFileSize},
		Storage: StorageConfig{Path: filepath.Join(".facet", "history")},
		Workspace: WorkspaceConfig{
			Concurrency: workspace.DefaultConcurrency,
			Debounce:    100 * time.Millisecond,
		},
	}
}

// Load reads the configuration at path.
//
// # Description
//
// Values missing from the file keep their defaults. A missing file yields
// DefaultConfig. The result is validated.
//
// # Outputs
//
//   - Config: The configuration.
//   - error: A read or parse error, or ErrInvalidConfig.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s fails %q", ErrInvalidConfig, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Write stores c at path, creating the directory.
func (c Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
