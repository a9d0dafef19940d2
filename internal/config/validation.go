package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	if c.Extraction.Timeout <= 0 {
		return fmt.Errorf("extraction.timeout must be positive, got %s", c.Extraction.Timeout)
	}
	if c.Extraction.Separator == "" {
		return fmt.Errorf("extraction.separator cannot be empty")
	}
	if c.Extraction.MaxDepth < 1 {
		return fmt.Errorf("extraction.max_depth must be at least 1, got %d", c.Extraction.MaxDepth)
	}
	if c.Containers.DequeBlockSize < 0 {
		return fmt.Errorf("containers.deque_block_size cannot be negative, got %d", c.Containers.DequeBlockSize)
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity cannot be negative, got %d", c.Cache.Capacity)
	}
	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	return nil
}
