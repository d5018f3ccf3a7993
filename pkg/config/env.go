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
	"github.com/spf13/viper"
)

// 🌍 applyEnv overlays environment variables onto the file config.
// Deployments keep credentials out of the config file this way.
func (cfg *Config) applyEnv() {
	v := viper.New()
	v.AutomaticEnv()

	if host := v.GetString("SFTP_HOST"); host != "" {
		cfg.Remote.Host = host
	}
	if port := v.GetInt("SFTP_PORT"); port != 0 {
		cfg.Remote.Port = port
	}
	if user := v.GetString("SFTP_USERNAME"); user != "" {
		cfg.Remote.Username = user
	}
	if key := v.GetString("SFTP_KEY_PATH"); key != "" {
		cfg.Remote.KeyPath = key
	}
	if url := v.GetString("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
		if cfg.Database.Driver == "" {
			cfg.Database.Driver = "postgres"
		}
	}
	if dir := v.GetString("STOREFEED_STATE_DIR"); dir != "" {
		cfg.StateDir = dir
	}
}
