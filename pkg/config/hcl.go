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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		Remote struct {
			Host     string `hcl:"host"`
			Port     int    `hcl:"port,optional"`
			Username string `hcl:"username"`
			KeyPath  string `hcl:"key_path"`
		} `hcl:"remote,block"`
		Database struct {
			Driver string `hcl:"driver,optional"`
			URL    string `hcl:"url,optional"`
			Path   string `hcl:"path,optional"`
		} `hcl:"database,block"`
		Ingest *struct {
			SleepSeconds    int      `hcl:"sleep_seconds,optional"`
			MaxAttempts     int      `hcl:"max_attempts,optional"`
			Interval        string   `hcl:"interval,optional"`
			Exclude         []string `hcl:"exclude,optional"`
			ItemKeyword     string   `hcl:"item_keyword,optional"`
			ModifierKeyword string   `hcl:"modifier_keyword,optional"`
			IgnorePatterns  []string `hcl:"ignore_patterns,optional"`
		} `hcl:"ingest,block"`
		StateDir string `hcl:"state_dir,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Remote: RemoteArgs{
			Host:     hclCfg.Remote.Host,
			Port:     hclCfg.Remote.Port,
			Username: hclCfg.Remote.Username,
			KeyPath:  hclCfg.Remote.KeyPath,
		},
		Database: DatabaseArgs{
			Driver: hclCfg.Database.Driver,
			URL:    hclCfg.Database.URL,
			Path:   hclCfg.Database.Path,
		},
		StateDir: hclCfg.StateDir,
	}

	if hclCfg.Ingest != nil {
		cfg.Ingest = IngestArgs{
			SleepSeconds:    hclCfg.Ingest.SleepSeconds,
			MaxAttempts:     hclCfg.Ingest.MaxAttempts,
			Interval:        hclCfg.Ingest.Interval,
			Exclude:         hclCfg.Ingest.Exclude,
			ItemKeyword:     hclCfg.Ingest.ItemKeyword,
			ModifierKeyword: hclCfg.Ingest.ModifierKeyword,
			IgnorePatterns:  hclCfg.Ingest.IgnorePatterns,
		}
	}

	return cfg, nil
}
