// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Providers     ProvidersConfig         `mapstructure:"providers"`
	AI            AIConfig                `mapstructure:"ai"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
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

// --- Specific Configuration Sections ---

// ProvidersConfig holds credentials and model choices for the AI backends.
// The primary provider is tried first on every generation; the fallback only
// runs when the primary fails.
type ProvidersConfig struct {
	Primary string `mapstructure:"primary"` // "gemini" or "openai"

	Gemini struct {
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"gemini"`

	OpenAI struct {
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"openai"`
}

// AIConfig holds orchestration tunables shared by the response pipeline.
type AIConfig struct {
	ProviderTimeout     int     `mapstructure:"provider_timeout"` // milliseconds
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	MaxMessageLength    int     `mapstructure:"max_message_length"`
	MaxQuestionMarks    int     `mapstructure:"max_question_marks"`
	ContextCacheTTL     int     `mapstructure:"context_cache_ttl"` // seconds
	TraceIndex          string  `mapstructure:"trace_index"`
}

// NotificationConfig holds settings for the notify-escalation worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled          bool   `mapstructure:"enabled"`
		UrgencyThreshold string `mapstructure:"urgency_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
