// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App          App                     `mapstructure:"app"`
	Camunda      Camunda                 `mapstructure:"camunda"`
	Database     Database                `mapstructure:"database"`
	WordPress    WordPress               `mapstructure:"wordpress"`
	Export       Export                  `mapstructure:"export"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Integrations Integrations            `mapstructure:"integrations"`
	Logging      Logging                 `mapstructure:"logging"`
	Registry     Registry                `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---

type App struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type Camunda struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type Database struct {
	Redis Redis `mapstructure:"redis"`
}

type Redis struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Domain Configuration Sections ---

// WordPress holds settings for the client-site REST collaborator.
type WordPress struct {
	RequestTimeout   int `mapstructure:"request_timeout"`   // milliseconds
	SignatureTimeout int `mapstructure:"signature_timeout"` // milliseconds, per image
	CacheTTL         int `mapstructure:"cache_ttl"`         // seconds, submission snapshot
}

// Export holds settings shared by the CSV and PDF export workers.
type Export struct {
	SyncStatusTTL int `mapstructure:"sync_status_ttl"` // seconds, transient sync result display
}

// Integrations holds settings for report delivery and sync notices.
type Integrations struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// Logging holds logging settings.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Registry points at the activity registry consumed at startup.
type Registry struct {
	Path string `mapstructure:"path"`
}
