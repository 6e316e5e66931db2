// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "source-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ScoringConfig holds settings for the dialectical scorer.
type ScoringConfig struct {
	// TensionPenalty is the constant k in synthesis * (1 - k * tension) (default 0.1).
	TensionPenalty float64 `json:"tension_penalty" yaml:"tension_penalty" mapstructure:"tension_penalty"`
}

// AuthorityConfig holds settings for the authority lookup service used to
// enhance source authority scores.
type AuthorityConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the authority service root. Empty disables enhancement.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// RequestsPerSecond limits lookups against the service (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Concurrency bounds in-flight lookups (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// RegistryConfig holds settings for the source profile registry.
type RegistryConfig struct {
	// CatalogPath is a YAML or TOML source catalog. Empty uses the built-in catalog.
	CatalogPath string `json:"catalog_path" yaml:"catalog_path" mapstructure:"catalog_path"`

	// RefreshInterval is the authority refresh period (default 1h).
	RefreshInterval time.Duration `json:"refresh_interval" yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// Watch reloads the catalog when the file changes.
	Watch bool `json:"watch" yaml:"watch" mapstructure:"watch"`

	Authority AuthorityConfig `json:"authority" yaml:"authority" mapstructure:"authority"`
}

// PolicyConfig locates the context configuration table.
type PolicyConfig struct {
	// Path is a YAML policy file. Empty uses the built-in table.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ReporterConfig holds the decision reporter's rolling window settings.
type ReporterConfig struct {
	// WindowSize is the maximum number of decisions kept (default 1000).
	WindowSize int `json:"window_size" yaml:"window_size" mapstructure:"window_size"`

	// WindowAge drops decisions older than this. Zero keeps them until
	// WindowSize evicts them.
	WindowAge time.Duration `json:"window_age" yaml:"window_age" mapstructure:"window_age"`
}

// DecisionLogConfig locates the SQLite decision log.
type DecisionLogConfig struct {
	// Path is the database file. Empty disables the log.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// CacheConfig sizes in-process caches.
type CacheConfig struct {
	// ClassificationCacheSize is the LRU size for query classifications.
	// Zero disables the cache.
	ClassificationCacheSize int `json:"classification_cache_size" yaml:"classification_cache_size" mapstructure:"classification_cache_size"`
}

// EngineConfig groups every component configuration.
type EngineConfig struct {
	Scoring     ScoringConfig     `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Registry    RegistryConfig    `json:"registry" yaml:"registry" mapstructure:"registry"`
	Policy      PolicyConfig      `json:"policy" yaml:"policy" mapstructure:"policy"`
	Reporter    ReporterConfig    `json:"reporter" yaml:"reporter" mapstructure:"reporter"`
	DecisionLog DecisionLogConfig `json:"decision_log" yaml:"decision_log" mapstructure:"decision_log"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
	Server      ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
	Cache       CacheConfig       `json:"cache" yaml:"cache" mapstructure:"cache"`
}

// DefaultEngineConfig returns the configuration used when no file overrides it.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Scoring: ScoringConfig{TensionPenalty: 0.1},
		Registry: RegistryConfig{
			RefreshInterval: time.Hour,
			Authority: AuthorityConfig{
				HTTPConfig: HTTPConfig{
					Timeout:   10 * time.Second,
					UserAgent: "source-engine/0.1",
				},
				RequestsPerSecond: 5,
				Concurrency:       4,
				MaxRetries:        5,
			},
		},
		Reporter: ReporterConfig{WindowSize: 1000},
		Log:      LogConfig{Level: "info", Format: "text"},
		Server:   ServerConfig{Addr: ":8080"},
		Cache:    CacheConfig{ClassificationCacheSize: 1024},
	}
}
