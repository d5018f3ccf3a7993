package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
remote:
  host: sftp.example.com
  username: harvester
  key_path: /etc/storefeed/id_rsa
database:
  driver: sqlite
  path: /var/lib/storefeed/reports.db
ingest:
  sleep_seconds: 60
  max_attempts: 10
  interval: 30m
  exclude:
    - "217184"
state_dir: /var/lib/storefeed
`

const hclConfig = `
remote {
  host     = "sftp.example.com"
  username = "harvester"
  key_path = "/etc/storefeed/id_rsa"
  port     = 2022
}

database {
  driver = "postgres"
  url    = "postgres://storefeed@localhost/reports"
}

ingest {
  max_attempts = 5
  exclude      = ["217184", "300200"]
}
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(context.Background(), writeConfig(t, "storefeed.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, "sftp.example.com", cfg.Remote.Host)
	assert.Equal(t, 22, cfg.Remote.Port, "port should default")
	assert.Equal(t, "harvester", cfg.Remote.Username)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/var/lib/storefeed/reports.db", cfg.Database.Path)
	assert.Equal(t, []string{"217184"}, cfg.Ingest.Exclude)
	assert.Equal(t, 10, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Sleep())
	assert.Equal(t, 30*time.Minute, cfg.BucketInterval())
	assert.Equal(t, "/var/lib/storefeed", cfg.StateDir)
}

func TestLoad_HCL(t *testing.T) {
	cfg, err := Load(context.Background(), writeConfig(t, "storefeed.hcl", hclConfig))
	require.NoError(t, err)

	assert.Equal(t, 2022, cfg.Remote.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://storefeed@localhost/reports", cfg.Database.URL)
	assert.Equal(t, []string{"217184", "300200"}, cfg.Ingest.Exclude)
	assert.Equal(t, 5, cfg.Ingest.MaxAttempts)

	// Unspecified knobs get defaults.
	assert.Equal(t, 300*time.Second, cfg.Sleep())
	assert.Equal(t, time.Hour, cfg.BucketInterval())
	assert.Equal(t, ".", cfg.StateDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SFTP_HOST", "failover.example.com")
	t.Setenv("DATABASE_URL", "postgres://other@db/reports")

	cfg, err := Load(context.Background(), writeConfig(t, "storefeed.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, "failover.example.com", cfg.Remote.Host)
	assert.Equal(t, "postgres://other@db/reports", cfg.Database.URL)
}

func TestLoad_NoParser(t *testing.T) {
	_, err := Load(context.Background(), writeConfig(t, "storefeed.toml", "x = 1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parser found")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Remote:   RemoteArgs{Host: "h", Username: "u", KeyPath: "/k"},
			Database: DatabaseArgs{Driver: "sqlite", Path: "/db"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid_config",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing_host",
			mutate:  func(cfg *Config) { cfg.Remote.Host = "" },
			wantErr: "remote.host is required",
		},
		{
			name:    "missing_username",
			mutate:  func(cfg *Config) { cfg.Remote.Username = "" },
			wantErr: "remote.username is required",
		},
		{
			name:    "missing_key_path",
			mutate:  func(cfg *Config) { cfg.Remote.KeyPath = "" },
			wantErr: "remote.key_path is required",
		},
		{
			name:    "postgres_without_url",
			mutate:  func(cfg *Config) { cfg.Database = DatabaseArgs{Driver: "postgres"} },
			wantErr: "database.url is required",
		},
		{
			name:    "sqlite_without_path",
			mutate:  func(cfg *Config) { cfg.Database = DatabaseArgs{Driver: "sqlite"} },
			wantErr: "database.path is required",
		},
		{
			name:    "unknown_driver",
			mutate:  func(cfg *Config) { cfg.Database.Driver = "oracle" },
			wantErr: "unknown database driver",
		},
		{
			name:    "bad_interval",
			mutate:  func(cfg *Config) { cfg.Ingest.Interval = "7h" },
			wantErr: "ingest.interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_DriverInference(t *testing.T) {
	cfg := &Config{
		Remote:   RemoteArgs{Host: "h", Username: "u", KeyPath: "/k"},
		Database: DatabaseArgs{Path: "/db"},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Database.Driver)

	cfg = &Config{
		Remote:   RemoteArgs{Host: "h", Username: "u", KeyPath: "/k"},
		Database: DatabaseArgs{URL: "postgres://x"},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "postgres", cfg.Database.Driver)
}
