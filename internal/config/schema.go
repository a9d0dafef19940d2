// Package config provides configuration loading for geoinspect.
package config

import (
	"time"

	"github.com/coral-mesh/geoinspect/internal/logging"
	"github.com/coral-mesh/geoinspect/pkg/extract"
	"github.com/coral-mesh/geoinspect/pkg/loader"
)

// Config is the geoinspect configuration document.
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction"`
	Containers ContainersConfig `yaml:"containers"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`

	// UserTypes lists YAML files holding user type definitions. Relative
	// paths are resolved against the directory of the config file.
	UserTypes []string `yaml:"user_types,omitempty" env:"GEOINSPECT_USER_TYPES"`
}

// ExtractionConfig controls how values are read from the debuggee.
type ExtractionConfig struct {
	// Timeout bounds a single load.
	Timeout time.Duration `yaml:"timeout" env:"GEOINSPECT_TIMEOUT"`
	// Separator joins coordinate expressions such as "xs;ys".
	Separator string `yaml:"separator" env:"GEOINSPECT_SEPARATOR"`
	// MemoryPath enables raw memory reads when the debugger supports them.
	MemoryPath bool `yaml:"memory_path" env:"GEOINSPECT_MEMORY_PATH"`
	// MaxDepth bounds the recursion into tree nodes.
	MaxDepth int `yaml:"max_depth" env:"GEOINSPECT_MAX_DEPTH"`
}

// ContainersConfig tunes container layouts.
type ContainersConfig struct {
	// DequeBlockSize overrides the elements per deque block. Zero derives
	// it from the element size.
	DequeBlockSize int `yaml:"deque_block_size" env:"GEOINSPECT_DEQUE_BLOCK_SIZE"`
}

// CacheConfig bounds the loader cache.
type CacheConfig struct {
	// Capacity is the number of type strings kept. Zero means unbounded.
	Capacity int `yaml:"capacity" env:"GEOINSPECT_CACHE_CAPACITY"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"GEOINSPECT_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"GEOINSPECT_LOG_PRETTY"`
}

// LoaderOptions returns the options of a loader environment.
func (c *Config) LoaderOptions() loader.Options {
	return loader.Options{
		MemoryPath:     c.Extraction.MemoryPath,
		MaxDepth:       c.Extraction.MaxDepth,
		DequeBlockSize: c.Containers.DequeBlockSize,
	}
}

// ExtractOptions returns the options of an extractor.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		Timeout:   c.Extraction.Timeout,
		Separator: c.Extraction.Separator,
		Loader:    c.LoaderOptions(),
	}
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Pretty: c.Logging.Pretty,
	}
}
