package config

import "time"

const (
	// DefaultDir is the configuration directory under the user home.
	DefaultDir = ".geoinspect"
	// ConfigFile is the configuration file name.
	ConfigFile = "config.yaml"

	// DefaultTimeout bounds a single load.
	DefaultTimeout = 5 * time.Second
	// DefaultSeparator joins coordinate expressions.
	DefaultSeparator = ";"
	// DefaultMaxDepth bounds the recursion into tree nodes.
	DefaultMaxDepth = 64
	// DefaultCacheCapacity is the number of type strings kept in the cache.
	DefaultCacheCapacity = 1024
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Timeout:    DefaultTimeout,
			Separator:  DefaultSeparator,
			MemoryPath: true,
			MaxDepth:   DefaultMaxDepth,
		},
		Cache: CacheConfig{
			Capacity: DefaultCacheCapacity,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Pretty: true,
		},
	}
}
