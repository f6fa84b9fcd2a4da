// Package config handles meshtool configuration loading and management.
package config

import (
	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/formats"
)

// Config holds all meshtool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Export  ExportConfig  `yaml:"export"`
	Import  ImportConfig  `yaml:"import"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ExportConfig selects the format written by upgrade.
type ExportConfig struct {
	Version string `yaml:"version"` // "latest", "1.8", ... or a version tag
	Endian  string `yaml:"endian"`  // native, big or little
}

// ImportConfig controls how meshes are read.
type ImportConfig struct {
	ValidateChunkSizes bool   `yaml:"validate_chunk_sizes"`
	NameCharset        string `yaml:"name_charset"`    // code page of material and skeleton names
	MaterialPrefix     string `yaml:"material_prefix"` // prepended to every material name
	SkeletonDir        string `yaml:"skeleton_dir"`    // directory joined to skeleton names
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Export: ExportConfig{
			Version: "latest",
			Endian:  "native",
		},
		Import: ImportConfig{
			ValidateChunkSizes: chunk.ValidateByDefault,
		},
	}
}

// ExportVersion parses Export.Version.
func (c *Config) ExportVersion() (formats.Version, error) {
	return formats.ParseVersion(c.Export.Version)
}

// ExportEndian parses Export.Endian.
func (c *Config) ExportEndian() (chunk.Endian, error) {
	return chunk.ParseEndian(c.Export.Endian)
}
