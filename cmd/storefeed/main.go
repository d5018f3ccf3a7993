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

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/cmd/storefeed/commands"
	"github.com/walteh/storefeed/cmd/storefeed/opts"
	"github.com/walteh/storefeed/pkg/config"
	"github.com/walteh/storefeed/pkg/log"
)

var (
	// Flags
	configFile string
	debug      bool
)

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &opts.RootOpts{}

	root := &cobra.Command{
		Use:           "storefeed",
		Short:         "Harvest daily POS exports from the remote drop site into interval reports",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()

			level := zerolog.InfoLevel
			if debug {
				level = zerolog.DebugLevel
			}
			logger := log.New(os.Stdout, level)
			o.Logger = logger
			cmd.SetContext(log.NewContext(cmd.Context(), logger))

			cfg, err := config.Load(cmd.Context(), configFile)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			o.Config = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "storefeed.yaml", "config file path")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	root.AddCommand(
		commands.NewIngestCmd(o),
		commands.NewBackfillCmd(o),
		commands.NewStatusCmd(o),
		commands.NewCleanCmd(o),
	)

	return root
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &zlog
}
