package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
domains:
  - name: asset
    collection: assets
    channel: asset_changes
    scanBatchSize: 200
    flushInterval: 2s
database:
  host: localhost
  port: 5432
  user: indexsync
  database: assets
index:
  baseURL: http://solr:8983/solr
  timeout: 30s
  retry:
    maxAttempts: 4
    initialInterval: 250ms
    maxInterval: 10s
metrics:
  enabled: true
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, validYAML)
	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)

	require.Len(t, cfg.Domains, 1)
	dom := cfg.Domains[0]
	assert.Equal(t, "asset", dom.Name)
	assert.Equal(t, "assets", dom.GetCollection())
	assert.Equal(t, "asset_changes", dom.GetChannel())
	assert.Equal(t, 200, dom.GetScanBatchSize())
	assert.Equal(t, 2*time.Second, dom.GetFlushInterval())

	assert.Equal(t, "http://solr:8983/solr", cfg.Index.BaseURL)
	assert.Equal(t, 4, cfg.Index.Retry.MaxAttempts)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfig_PathRequired(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	assert.Error(t, err)

	_, err = LoadConfig(WithConfigPath(""))
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "domains: [\n")
	_, err := LoadConfig(WithConfigPath(path))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		return &Config{
			Domains: []DomainConfig{{Name: "asset"}},
			Database: &DatabaseConfig{
				Host: "localhost", Port: 5432, User: "u", Database: "d",
			},
			Index: &IndexConfig{BaseURL: "http://solr:8983/solr"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "no domains",
			mutate:  func(c *Config) { c.Domains = nil },
			wantErr: "at least one domain",
		},
		{
			name:    "unnamed domain",
			mutate:  func(c *Config) { c.Domains[0].Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "duplicate domain",
			mutate:  func(c *Config) { c.Domains = append(c.Domains, DomainConfig{Name: "asset"}) },
			wantErr: "duplicate domain",
		},
		{
			name:    "missing database",
			mutate:  func(c *Config) { c.Database = nil },
			wantErr: "database configuration is required",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "missing index",
			mutate:  func(c *Config) { c.Index = nil },
			wantErr: "index configuration is required",
		},
		{
			name:    "missing index base URL",
			mutate:  func(c *Config) { c.Index.BaseURL = "" },
			wantErr: "index.baseURL",
		},
		{
			name:    "bad flush interval",
			mutate:  func(c *Config) { c.Domains[0].FlushInterval = "soon" },
			wantErr: "flushInterval",
		},
		{
			name:    "negative retry attempts",
			mutate:  func(c *Config) { c.Index.Retry = &RetryConfig{MaxAttempts: -1} },
			wantErr: "maxAttempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDomainConfig_Defaults(t *testing.T) {
	t.Parallel()

	dom := &DomainConfig{Name: "asset"}
	assert.Equal(t, "asset", dom.GetCollection())
	assert.Equal(t, "asset_events", dom.GetChannel())
	assert.Equal(t, "asset", dom.GetTable())
	assert.Equal(t, "id", dom.GetKeyColumn())
	assert.Equal(t, defaultScanBatchSize, dom.GetScanBatchSize())
	assert.Equal(t, defaultApplyBatchSize, dom.GetApplyBatchSize())
	assert.Equal(t, defaultFlushInterval, dom.GetFlushInterval())
	assert.Equal(t, defaultPollInterval, dom.GetPollInterval())
	assert.Equal(t, defaultReadLimit, dom.GetReadLimit())
	assert.Zero(t, dom.GetBufferRetention())
}

func TestDatabaseConfig_GetPassword(t *testing.T) {
	// Not parallel: manipulates process environment.
	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("  s3cret\n"), 0600))

	cfg := &DatabaseConfig{PasswordFile: passwordFile}
	password, err := cfg.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)

	// File takes priority over the environment.
	t.Setenv(EnvPrefix+"_DATABASE_PASSWORD", "from-env")
	password, err = cfg.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)

	// Without a file the environment is used.
	cfg.PasswordFile = ""
	password, err = cfg.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "from-env", password)
}

func TestDatabaseConfig_GetPasswordUnset(t *testing.T) {
	// Not parallel: depends on the environment being clean.
	t.Setenv(EnvPrefix+"_DATABASE_PASSWORD", "")

	cfg := &DatabaseConfig{}
	_, err := cfg.GetPassword()
	assert.Error(t, err)
}

func TestDatabaseConfig_GetConnectionString(t *testing.T) {
	// Not parallel: manipulates process environment.
	t.Setenv(EnvPrefix+"_DATABASE_PASSWORD", "p@ss w/slash")

	cfg := &DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "indexsync", Database: "assets",
	}
	connString, err := cfg.GetConnectionString()
	require.NoError(t, err)

	assert.Contains(t, connString, "postgres://indexsync:")
	assert.Contains(t, connString, "@db.internal:5432/assets")
	assert.Contains(t, connString, "sslmode=require")
	// Special characters must be escaped.
	assert.NotContains(t, connString, "p@ss w/slash")
}
