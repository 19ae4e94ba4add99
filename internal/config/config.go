// Package config loads optional YAML defaults for the diskaudit command.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File holds defaults read from a config file. Nil fields were not set.
type File struct {
	Top         *int     `yaml:"top"`
	Workers     *int     `yaml:"workers"`
	Hash        *string  `yaml:"hash"`
	Verify      *bool    `yaml:"verify"`
	Extensions  []string `yaml:"extensions"`
	Excludes    []string `yaml:"excludes"`
	MinSize     *string  `yaml:"min_size"` // e.g., "1KB"
	Depth       *int     `yaml:"depth"`
	FileTimeout *string  `yaml:"file_timeout"` // e.g., "30s"
	Output      *string  `yaml:"output"`
}

// Load reads the config file at path. An empty path yields an empty File.
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &file, nil
}

// Validate checks value ranges.
func (f *File) Validate() error {
	if f.Top != nil && *f.Top <= 0 {
		return errors.New("top must be positive")
	}

	if f.Workers != nil && *f.Workers <= 0 {
		return errors.New("workers must be positive")
	}

	if f.Depth != nil && *f.Depth < 0 {
		return errors.New("depth cannot be negative")
	}

	return nil
}
