// internal/workers/sync/sync-client/config.go
package syncclient

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TopicARN      string        `mapstructure:"topic_arn"`
	NoticeEnabled bool          `mapstructure:"notice_enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       120 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.NoticeEnabled && c.TopicARN == "" {
		return fmt.Errorf("topic_arn is required when notices are enabled")
	}
	return nil
}
