// Package config handles converter configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all converter settings.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" toml:"paths"`
	Conversion ConversionConfig `yaml:"conversion" toml:"conversion"`
	Run        RunConfig        `yaml:"run" toml:"run"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// PathsConfig holds input and output directories.
type PathsConfig struct {
	Source    string `yaml:"source" toml:"source"`       // Raw model exports
	Materials string `yaml:"materials" toml:"materials"` // Material description files
	Output    string `yaml:"output" toml:"output"`       // Converted bundles
}

// ConversionConfig holds engine settings.
type ConversionConfig struct {
	Extensions             []string `yaml:"extensions" toml:"extensions"`
	ExcludePrefixes        []string `yaml:"exclude_prefixes" toml:"exclude_prefixes"`
	MaxMaterialsPerSection int      `yaml:"max_materials_per_section" toml:"max_materials_per_section"`
	PlaceholderMesh        bool     `yaml:"placeholder_mesh" toml:"placeholder_mesh"` // Emit a stand-in mesh for locator-only models
	Binary                 bool     `yaml:"binary" toml:"binary"`                     // Write .glb instead of .gltf
}

// RunConfig holds batch settings.
type RunConfig struct {
	Workers int    `yaml:"workers" toml:"workers"`
	Resume  bool   `yaml:"resume" toml:"resume"`
	Ledger  string `yaml:"ledger" toml:"ledger"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Source:    "source",
			Materials: "",
			Output:    "output",
		},
		Conversion: ConversionConfig{
			Extensions:             []string{".gltf", ".glb"},
			ExcludePrefixes:        []string{"ef_", "sky_"},
			MaxMaterialsPerSection: 64,
			PlaceholderMesh:        true,
			Binary:                 false,
		},
		Run: RunConfig{
			Workers: 1,
			Resume:  false,
			Ledger:  "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values the engine cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Paths.Source == "":
		return fmt.Errorf("%w: paths.source is empty", ErrInvalidConfig)
	case c.Paths.Output == "":
		return fmt.Errorf("%w: paths.output is empty", ErrInvalidConfig)
	case len(c.Conversion.Extensions) == 0:
		return fmt.Errorf("%w: conversion.extensions is empty", ErrInvalidConfig)
	case c.Conversion.MaxMaterialsPerSection < 1:
		return fmt.Errorf("%w: conversion.max_materials_per_section must be positive", ErrInvalidConfig)
	case c.Run.Workers < 1:
		return fmt.Errorf("%w: run.workers must be positive", ErrInvalidConfig)
	case c.Run.Resume && c.Run.Ledger == "":
		return fmt.Errorf("%w: run.resume needs run.ledger", ErrInvalidConfig)
	}
	for _, ext := range c.Conversion.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidConfig, ext)
		}
	}
	return nil
}

// MaterialDir returns the material directory, defaulting to the source
// directory.
func (c *Config) MaterialDir() string {
	if c.Paths.Materials != "" {
		return c.Paths.Materials
	}
	return c.Paths.Source
}
