package opts

import (
	"github.com/walteh/storefeed/pkg/config"
	"github.com/walteh/storefeed/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config *config.Config
	Logger *log.Logger
}
