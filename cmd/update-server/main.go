// Package main is the entry point for the mod update API server.
package main

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/sfr-mod/update-server/cmd/update-server/app"
	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/logger"
)

// getLogLevel reads UPDATE_SERVER_LOG_LEVEL from the environment,
// defaulting to info when unset or invalid.
func getLogLevel() string {
	v := viper.GetViper()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v.GetString("log_level")
}

func main() {
	logger.Initialize(getLogLevel())
	defer func() {
		_ = logger.Sync()
	}()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
