// Package config provides configuration loading and management for the
// index synchronizer.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variables read by the process.
const EnvPrefix = "IDXSYNC"

// Defaults applied when the corresponding field is unset.
const (
	defaultScanBatchSize  = 500
	defaultApplyBatchSize = 100
	defaultFlushInterval  = 5 * time.Second
	defaultPollInterval   = 10 * time.Second
	defaultReadLimit      = 1000
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Domains lists the logical domains this instance keeps in sync
	Domains []DomainConfig `yaml:"domains"`

	// Database holds the source database connection settings
	Database *DatabaseConfig `yaml:"database"`

	// Index holds the search engine connection settings
	Index *IndexConfig `yaml:"index"`

	// Metrics enables the OpenTelemetry metrics endpoint
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// DomainConfig defines a single synchronized domain
type DomainConfig struct {
	// Name is the identifier for this domain (e.g. "asset")
	Name string `yaml:"name"`

	// Collection is the index collection documents are written to.
	// Defaults to the domain name.
	Collection string `yaml:"collection,omitempty"`

	// Channel is the notification channel announcing new buffer events.
	// Defaults to "<name>_events".
	Channel string `yaml:"channel,omitempty"`

	// Table is the source table holding current asset rows.
	// Defaults to the domain name.
	Table string `yaml:"table,omitempty"`

	// KeyColumn is the identity key column of the source table.
	// Defaults to "id".
	KeyColumn string `yaml:"keyColumn,omitempty"`

	// ScanBatchSize bounds how many rows a full load reads per batch
	ScanBatchSize int `yaml:"scanBatchSize,omitempty"`

	// ApplyBatchSize is how many buffered events the listener accumulates
	// before flushing a batch to the index
	ApplyBatchSize int `yaml:"applyBatchSize,omitempty"`

	// FlushInterval bounds how long buffered events may wait before a
	// flush even if ApplyBatchSize was not reached (e.g. "5s")
	FlushInterval string `yaml:"flushInterval,omitempty"`

	// PollInterval is the listener's idle wait between buffer polls when
	// no notification arrives (e.g. "10s")
	PollInterval string `yaml:"pollInterval,omitempty"`

	// ReadLimit bounds how many buffer events one ReadSince call returns
	ReadLimit int `yaml:"readLimit,omitempty"`

	// BufferRetention enables the periodic sweep of buffer rows already
	// reflected by the durable cursor (e.g. "1h"). Empty disables it.
	BufferRetention string `yaml:"bufferRetention,omitempty"`
}

// IndexConfig defines the search engine connection settings
type IndexConfig struct {
	// BaseURL is the search engine endpoint, without the collection path
	// Example: "http://solr.default.svc.cluster.local:8983/solr"
	BaseURL string `yaml:"baseURL"`

	// Timeout bounds a single index request (e.g. "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// Retry configures the transient-failure retry budget
	Retry *RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig defines the bounded exponential backoff applied to
// transient index failures
type RetryConfig struct {
	// MaxAttempts is the attempt ceiling, including the first try
	MaxAttempts int `yaml:"maxAttempts,omitempty"`

	// InitialInterval is the first backoff delay (e.g. "500ms")
	InitialInterval string `yaml:"initialInterval,omitempty"`

	// MaxInterval caps the backoff delay (e.g. "30s")
	MaxInterval string `yaml:"maxInterval,omitempty"`
}

// MetricsConfig defines the metrics endpoint settings
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MinIdleConns is the minimum number of idle connections in the pool
	MinIdleConns int32 `yaml:"minIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from IDXSYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	// Priority 1: Read from file if specified
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		// Trim whitespace (including newlines) from file content
		password := strings.TrimSpace(string(data))
		return password, nil
	}

	// Priority 2: Check environment variable
	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable",
		EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	// URL-escape the password to handle special characters
	escapedPassword := url.QueryEscape(password)

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		escapedPassword,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.Domains) == 0 {
		return fmt.Errorf("at least one domain must be configured")
	}

	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}

	if c.Index == nil {
		return fmt.Errorf("index configuration is required")
	}
	if c.Index.BaseURL == "" {
		return fmt.Errorf("index.baseURL is required")
	}
	if err := validateDuration(c.Index.Timeout, "index.timeout"); err != nil {
		return err
	}
	if c.Index.Retry != nil {
		if err := validateDuration(c.Index.Retry.InitialInterval, "index.retry.initialInterval"); err != nil {
			return err
		}
		if err := validateDuration(c.Index.Retry.MaxInterval, "index.retry.maxInterval"); err != nil {
			return err
		}
		if c.Index.Retry.MaxAttempts < 0 {
			return fmt.Errorf("index.retry.maxAttempts must not be negative")
		}
	}

	// Validate each domain configuration
	domainNames := make(map[string]bool)
	for i, dom := range c.Domains {
		if dom.Name == "" {
			return fmt.Errorf("domain[%d]: name is required", i)
		}

		if domainNames[dom.Name] {
			return fmt.Errorf("domain[%d]: duplicate domain name '%s'", i, dom.Name)
		}
		domainNames[dom.Name] = true

		prefix := fmt.Sprintf("domain[%d] (%s)", i, dom.Name)
		if err := validateDuration(dom.FlushInterval, prefix+".flushInterval"); err != nil {
			return err
		}
		if err := validateDuration(dom.PollInterval, prefix+".pollInterval"); err != nil {
			return err
		}
		if err := validateDuration(dom.BufferRetention, prefix+".bufferRetention"); err != nil {
			return err
		}
	}

	return nil
}

// validateDuration checks that value, if set, parses as a time.Duration
func validateDuration(value, field string) error {
	if value == "" {
		return nil
	}
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30s', '5m'): %w", field, err)
	}
	return nil
}

// GetCollection returns the index collection, defaulting to the domain name
func (d *DomainConfig) GetCollection() string {
	if d.Collection == "" {
		return d.Name
	}
	return d.Collection
}

// GetChannel returns the notification channel, defaulting to "<name>_events"
func (d *DomainConfig) GetChannel() string {
	if d.Channel == "" {
		return d.Name + "_events"
	}
	return d.Channel
}

// GetTable returns the source table, defaulting to the domain name
func (d *DomainConfig) GetTable() string {
	if d.Table == "" {
		return d.Name
	}
	return d.Table
}

// GetKeyColumn returns the identity key column, defaulting to "id"
func (d *DomainConfig) GetKeyColumn() string {
	if d.KeyColumn == "" {
		return "id"
	}
	return d.KeyColumn
}

// GetScanBatchSize returns the full-load batch size with its default applied
func (d *DomainConfig) GetScanBatchSize() int {
	if d.ScanBatchSize <= 0 {
		return defaultScanBatchSize
	}
	return d.ScanBatchSize
}

// GetApplyBatchSize returns the listener flush threshold with its default applied
func (d *DomainConfig) GetApplyBatchSize() int {
	if d.ApplyBatchSize <= 0 {
		return defaultApplyBatchSize
	}
	return d.ApplyBatchSize
}

// GetFlushInterval returns the listener flush interval with its default applied
func (d *DomainConfig) GetFlushInterval() time.Duration {
	return durationOrDefault(d.FlushInterval, defaultFlushInterval)
}

// GetPollInterval returns the listener idle poll interval with its default applied
func (d *DomainConfig) GetPollInterval() time.Duration {
	return durationOrDefault(d.PollInterval, defaultPollInterval)
}

// GetReadLimit returns the buffer read page size with its default applied
func (d *DomainConfig) GetReadLimit() int {
	if d.ReadLimit <= 0 {
		return defaultReadLimit
	}
	return d.ReadLimit
}

// GetBufferRetention returns the buffer sweep interval; zero disables the sweep
func (d *DomainConfig) GetBufferRetention() time.Duration {
	return durationOrDefault(d.BufferRetention, 0)
}

func durationOrDefault(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
