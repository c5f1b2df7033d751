package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/iforgot/pkg/config"
)

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "iforgot",
		Short: "iForgot - capture thoughts and let AI sort them out",
		Long: `iForgot saves notes, extracts themes, mood and tasks from them and
files them into categories.

Examples:
  iforgot serve --addr :8080
  iforgot bot
  iforgot migrate --seed-demo-owner`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable development logging")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(botCmd(opts))
	rootCmd.AddCommand(migrateCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	if o.debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// load reads configuration and builds the logger every command needs.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	logger, err := o.logger()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err), zap.String("path", o.configPath))
		return nil, nil, err
	}
	return cfg, logger, nil
}
