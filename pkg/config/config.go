// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/storefeed/pkg/report"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📦 RemoteArgs configures the SFTP drop site holding the exports
type RemoteArgs struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Username string `json:"username" yaml:"username"`
	KeyPath  string `json:"key_path" yaml:"key_path"`
}

// 🗄️ DatabaseArgs configures where reports are upserted
type DatabaseArgs struct {
	Driver string `json:"driver" yaml:"driver"`                 // postgres or sqlite
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`   // postgres connection string
	Path   string `json:"path,omitempty" yaml:"path,omitempty"` // sqlite database file
}

// 🔧 IngestArgs tunes the retry loop and artifact matching
type IngestArgs struct {
	SleepSeconds    int      `json:"sleep_seconds,omitempty" yaml:"sleep_seconds,omitempty"`
	MaxAttempts     int      `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	Interval        string   `json:"interval,omitempty" yaml:"interval,omitempty"`
	Exclude         []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	ItemKeyword     string   `json:"item_keyword,omitempty" yaml:"item_keyword,omitempty"`
	ModifierKeyword string   `json:"modifier_keyword,omitempty" yaml:"modifier_keyword,omitempty"`
	IgnorePatterns  []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Remote   RemoteArgs   `json:"remote" yaml:"remote"`
	Database DatabaseArgs `json:"database" yaml:"database"`
	Ingest   IngestArgs   `json:"ingest,omitempty" yaml:"ingest,omitempty"`
	StateDir string       `json:"state_dir,omitempty" yaml:"state_dir,omitempty"`
}

// 🎯 Load loads the configuration from a file, applying environment
// overrides and defaults
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Environment wins over the file
	cfg.applyEnv()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and fills defaults
func (cfg *Config) Validate() error {
	// Check required fields
	if cfg.Remote.Host == "" {
		return errors.Errorf("remote.host is required")
	}
	if cfg.Remote.Username == "" {
		return errors.Errorf("remote.username is required")
	}
	if cfg.Remote.KeyPath == "" {
		return errors.Errorf("remote.key_path is required")
	}

	// Set defaults
	if cfg.Remote.Port == 0 {
		cfg.Remote.Port = 22
	}
	if cfg.Ingest.SleepSeconds == 0 {
		cfg.Ingest.SleepSeconds = 300
	}
	if cfg.Ingest.MaxAttempts == 0 {
		cfg.Ingest.MaxAttempts = 60
	}
	if cfg.Ingest.Interval == "" {
		cfg.Ingest.Interval = "1h"
	}
	if cfg.StateDir == "" {
		cfg.StateDir = "."
	}
	if cfg.Database.Driver == "" {
		if cfg.Database.Path != "" {
			cfg.Database.Driver = "sqlite"
		} else {
			cfg.Database.Driver = "postgres"
		}
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.Errorf("database.url is required for the postgres driver")
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			return errors.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return errors.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if _, err := report.ParseInterval(cfg.Ingest.Interval); err != nil {
		return errors.Errorf("ingest.interval: %w", err)
	}

	return nil
}

// ⏲️ Sleep returns the inter-pass sleep duration
func (cfg *Config) Sleep() time.Duration {
	return time.Duration(cfg.Ingest.SleepSeconds) * time.Second
}

// 🪣 BucketInterval returns the parsed report bucket width
func (cfg *Config) BucketInterval() time.Duration {
	d, err := report.ParseInterval(cfg.Ingest.Interval)
	if err != nil {
		return report.DefaultInterval
	}
	return d
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s@%s:%d -> %s", cfg.Remote.Username, cfg.Remote.Host, cfg.Remote.Port, cfg.Database.Driver)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	return &cfg, nil
}
