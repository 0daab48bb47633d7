// internal/workers/submission/fetch-submissions/config.go
package fetchsubmissions

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		CacheTTL:      5 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}
